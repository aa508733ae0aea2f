// Package recipe defines bouquet designs and catalogs.
//
// A design names a bouquet in one size class and constrains its contents:
// a per-species minimum and maximum, and an exact stem total.
// The stream form is compact:
//
//	AS3a4b6
//
// reads as design A, small, at most 3 of species a, at most 4 of b, exactly
// 6 stems in total. Every species listed carries an implicit minimum of one.
// Catalogs authored in CUE can loosen that (an explicit minimum of zero, or
// a floor above one), which the stream form cannot express.
//
// Declaration order is load-bearing. A catalog's designs are kept and
// evaluated strictly in the order they were declared; the first feasible
// design wins an arrival. Catalogs are immutable once built and carry a
// content hash over their canonical form, which is what run journals record
// and replay verifies.
//
// Building a catalog also precomputes what the assembly hot path needs:
// bounds tightened by the exact-total constraint, a per-species design
// index, and the catalog-wide ceiling each species can ever contribute.
package recipe
