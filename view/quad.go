package view

import (
	_ "embed"
	"fmt"
	"image"

	"github.com/go-gl/gl/v3.3-core/gl"
)

var (
	//go:embed shaders/quad.vert
	quadVert string
	//go:embed shaders/quad.frag
	quadFrag string
)

// quad draws an RGBA texture over the whole viewport. All methods must run
// on the main thread, with the GL context current.
type quad struct {
	prog, tex, vao uint32
	vbo, ebo       uint32
	size           image.Point
}

// Two triangles covering the viewport. Each vertex is x, y, u, v; the
// texture is flipped vertically so that image row 0 is at the top.
var quadVertices = []float32{
	-1, 1, 0, 0,
	1, 1, 1, 0,
	1, -1, 1, 1,
	-1, -1, 0, 1,
}

var quadIndices = []uint32{0, 1, 2, 2, 3, 0}

func newQuad(w, h int) (*quad, error) {
	prog, err := buildProgram(quadVert, quadFrag)
	if err != nil {
		return nil, err
	}

	q := &quad{prog: prog, size: image.Pt(w, h)}

	// Frames are binary images: no filtering.
	gl.GenTextures(1, &q.tex)
	gl.BindTexture(gl.TEXTURE_2D, q.tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	gl.GenVertexArrays(1, &q.vao)
	gl.GenBuffers(1, &q.vbo)
	gl.GenBuffers(1, &q.ebo)
	gl.BindVertexArray(q.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, q.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(quadVertices), gl.Ptr(quadVertices), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, q.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 4*len(quadIndices), gl.Ptr(quadIndices), gl.STATIC_DRAW)

	const stride = 4 * 4
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride, 2*4)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	return q, nil
}

// upload replaces the texture content with img, which must be of the quad
// size.
func (q *quad) upload(img *image.RGBA) error {
	if img.Bounds().Size() != q.size || img.Stride != 4*q.size.X {
		return fmt.Errorf("image is %v (stride %d), texture is %v", img.Bounds().Size(), img.Stride, q.size)
	}
	gl.BindTexture(gl.TEXTURE_2D, q.tex)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(q.size.X), int32(q.size.Y), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&img.Pix[0]))
	return nil
}

func (q *quad) draw() {
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.UseProgram(q.prog)
	gl.BindTexture(gl.TEXTURE_2D, q.tex)
	gl.BindVertexArray(q.vao)
	gl.DrawElements(gl.TRIANGLES, int32(len(quadIndices)), gl.UNSIGNED_INT, nil)
}

func (q *quad) delete() {
	gl.DeleteVertexArrays(1, &q.vao)
	gl.DeleteBuffers(1, &q.vbo)
	gl.DeleteBuffers(1, &q.ebo)
	gl.DeleteTextures(1, &q.tex)
	gl.DeleteProgram(q.prog)
}

func buildProgram(vert, frag string) (uint32, error) {
	vs, err := compileShader(vert, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %w", err)
	}
	defer gl.DeleteShader(vs)

	fs, err := compileShader(frag, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(fs)

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)

	var status int32
	if gl.GetProgramiv(prog, gl.LINK_STATUS, &status); status == gl.FALSE {
		var n int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &n)
		msg := make([]byte, n+1)
		gl.GetProgramInfoLog(prog, n, nil, &msg[0])
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link: %s", gl.GoStr(&msg[0]))
	}
	return prog, nil
}

func compileShader(src string, typ uint32) (uint32, error) {
	sh := gl.CreateShader(typ)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(sh, 1, csrc, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	if gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status); status == gl.FALSE {
		var n int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &n)
		msg := make([]byte, n+1)
		gl.GetShaderInfoLog(sh, n, nil, &msg[0])
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("compile: %s", gl.GoStr(&msg[0]))
	}
	return sh, nil
}
