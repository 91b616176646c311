// Package alphabet maps sequence symbols to dense integer codes and packs
// short tuples of codes into words.
//
// A word of width w holds w codes as the digits of a base-Size() number,
// first code most significant:
//
//	a := alphabet.AA()
//	codes, _ := a.Encode([]byte("ARN"), nil)
//	word := a.Pack(codes) // 0*24*24 + 1*24 + 2
//
// Words index the distance tables of package distance, so the word space of
// width w is Size()^w.
package alphabet
