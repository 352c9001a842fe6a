package filter

import (
	"bufio"
	"fmt"
	"io"
)

const ctrlC = 0x03

// Command returns the limit deltas for a control key, and whether the key
// quits. Unknown keys do nothing.
func Command(key byte) (spike, decay int64, quit bool) {
	switch key {
	case '+':
		return SpikeStep, 0, false
	case '-':
		return -SpikeStep, 0, false
	case 'p', 'P':
		return 0, DecayStep, false
	case 'l', 'L':
		return 0, -DecayStep, false
	case 'q', 'Q', ctrlC:
		return 0, 0, true
	}
	return 0, 0, false
}

// Control reads keys from in, one byte at a time, adjusting the filter limits
// accordingly. The limits are printed on out each time they change. Control
// returns when a quit key is read or at the end of in.
//
// in is expected to be a terminal in raw mode: lines are terminated with
// "\r\n" and Ctrl+C is read as a quit key.
func (f *Filter) Control(in io.Reader, out io.Writer) error {
	cur, err := f.Limits()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Current SPIKE_COUNTER_LIMIT = %d\r\n", cur.Spike)
	fmt.Fprintf(out, "Current DECAY_COUNTER_LIMIT = %d\r\n", cur.Decay)

	r := bufio.NewReader(in)
	for {
		key, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		spike, decay, quit := Command(key)
		if quit {
			break
		}
		if spike == 0 && decay == 0 {
			continue
		}

		next, err := f.Adjust(spike, decay)
		if err != nil {
			return err
		}
		if next != cur {
			fmt.Fprintf(out, "\r%s", next)
			cur = next
		}
	}

	fmt.Fprint(out, "\r\nExiting...\r\n")
	return nil
}
