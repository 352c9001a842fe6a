//go:build !(386 || amd64 || arm || arm64 || loong64 || mips64le || mipsle || ppc64le || riscv64 || wasm)

package hwio

// Mem32 accesses register windows in host byte order, which is only right
// on little-endian hosts.
var _ = hwioRequiresLittleEndianHost
