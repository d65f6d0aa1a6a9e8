package runtime

// A tiny WebAssembly binary assembler for test programs.

const (
	valI32 byte = 0x7f
	valI64 byte = 0x7e

	opCall     byte = 0x10
	opLocalGet byte = 0x20
	opLocalSet byte = 0x21
	opI32Const byte = 0x41
	opI64Const byte = 0x42
	opI64ShrU  byte = 0x88
	opI32Wrap  byte = 0xa7
	opEnd      byte = 0x0b
)

type funcType struct {
	params, results []byte
}

type wasmImport struct {
	module, name string
	typeIdx      uint32
}

type wasmFunc struct {
	name    string // exported under this name when non-empty
	typeIdx uint32
	locals  []byte
	body    []byte
}

type dataSegment struct {
	offset int32
	data   []byte
}

type wasmModule struct {
	types   []funcType
	imports []wasmImport
	funcs   []wasmFunc
	memory  bool
	data    []dataSegment
}

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		out = append(out, b)
		if done {
			return out
		}
	}
}

func wasmName(s string) []byte {
	return append(uleb(uint64(len(s))), s...)
}

func vec(items ...[]byte) []byte {
	out := uleb(uint64(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func section(id byte, content []byte) []byte {
	out := []byte{id}
	out = append(out, uleb(uint64(len(content)))...)
	return append(out, content...)
}

func (m wasmModule) encode() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	var types [][]byte
	for _, t := range m.types {
		ft := []byte{0x60}
		ft = append(ft, vec(bytesOf(t.params)...)...)
		ft = append(ft, vec(bytesOf(t.results)...)...)
		types = append(types, ft)
	}
	out = append(out, section(1, vec(types...))...)

	if len(m.imports) > 0 {
		var imps [][]byte
		for _, imp := range m.imports {
			e := append(wasmName(imp.module), wasmName(imp.name)...)
			e = append(e, 0x00)
			e = append(e, uleb(uint64(imp.typeIdx))...)
			imps = append(imps, e)
		}
		out = append(out, section(2, vec(imps...))...)
	}

	var fidx [][]byte
	for _, f := range m.funcs {
		fidx = append(fidx, uleb(uint64(f.typeIdx)))
	}
	out = append(out, section(3, vec(fidx...))...)

	if m.memory {
		out = append(out, section(5, vec([]byte{0x00, 0x01}))...)
	}

	var exps [][]byte
	if m.memory {
		exps = append(exps, append(wasmName("memory"), 0x02, 0x00))
	}
	for i, f := range m.funcs {
		if f.name == "" {
			continue
		}
		e := append(wasmName(f.name), 0x00)
		e = append(e, uleb(uint64(len(m.imports)+i))...)
		exps = append(exps, e)
	}
	out = append(out, section(7, vec(exps...))...)

	var codes [][]byte
	for _, f := range m.funcs {
		var locals [][]byte
		for _, l := range f.locals {
			locals = append(locals, []byte{0x01, l})
		}
		body := vec(locals...)
		body = append(body, f.body...)
		body = append(body, opEnd)
		codes = append(codes, append(uleb(uint64(len(body))), body...))
	}
	out = append(out, section(10, vec(codes...))...)

	if len(m.data) > 0 {
		var segs [][]byte
		for _, d := range m.data {
			s := []byte{0x00, opI32Const}
			s = append(s, sleb(int64(d.offset))...)
			s = append(s, opEnd)
			s = append(s, uleb(uint64(len(d.data)))...)
			s = append(s, d.data...)
			segs = append(segs, s)
		}
		out = append(out, section(11, vec(segs...))...)
	}
	return out
}

func bytesOf(bs []byte) [][]byte {
	out := make([][]byte, len(bs))
	for i, b := range bs {
		out[i] = []byte{b}
	}
	return out
}

// code concatenates instruction fragments.
func code(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func i32Const(v int32) []byte { return append([]byte{opI32Const}, sleb(int64(v))...) }
func i64Const(v int64) []byte { return append([]byte{opI64Const}, sleb(v)...) }
func call(idx uint32) []byte { return append([]byte{opCall}, uleb(uint64(idx))...) }
func localGet(idx uint32) []byte { return append([]byte{opLocalGet}, uleb(uint64(idx))...) }
func localSet(idx uint32) []byte { return append([]byte{opLocalSet}, uleb(uint64(idx))...) }
func op(b ...byte) []byte { return b }
