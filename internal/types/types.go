// Package types implements component D of the front end: the type
// registry. It interns every type the parser constructs, provides
// structural equivalence, dealiasing, pointer/reference/array construction
// with mutability, struct/union/enum/function-pointer definitions, and the
// compatibility/coercion/assignability queries the expression and
// declaration parsers drive off of.
//
// Grounded on the teacher's (grailbio-gql) gql/value_type.go, which enumerates
// a closed set of value "classes" the same way; the interning and
// mutability-pairing machinery below has no teacher analog (the teacher's
// query language has no mutability or pointers) and is built from
// spec.md §3.1/§4.D directly, using internal/hash for the interning keys in
// place of the teacher's ad hoc per-node hash literals.
package types

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/must"

	"github.com/dmihel/slfront/internal/hash"
)

// Class tags the structural shape of a Type.
type Class int

const (
	Basic Class = iota
	Pointer
	Reference
	Array
	Struct
	Union
	Enum
	FunctionSignature
	Alias
)

func (c Class) String() string {
	switch c {
	case Basic:
		return "basic"
	case Pointer:
		return "pointer"
	case Reference:
		return "reference"
	case Array:
		return "array"
	case Struct:
		return "struct"
	case Union:
		return "union"
	case Enum:
		return "enum"
	case FunctionSignature:
		return "fn"
	case Alias:
		return "alias"
	default:
		return "?"
	}
}

// Primitive enumerates the basic (non-composite) value kinds.
type Primitive int

const (
	InvalidPrimitive Primitive = iota
	Void
	U8
	I8
	U16
	I16
	U32
	I32
	U64
	I64
	F32
	F64
	CharPrim
	BoolPrim
)

var primitiveNames = map[Primitive]string{
	Void: "void", U8: "u8", I8: "i8", U16: "u16", I16: "i16",
	U32: "u32", I32: "i32", U64: "u64", I64: "i64",
	F32: "f32", F64: "f64", CharPrim: "char", BoolPrim: "bool",
}

var primitiveSizes = map[Primitive]int{
	Void: 0, U8: 1, I8: 1, U16: 2, I16: 2, U32: 4, I32: 4,
	U64: 8, I64: 8, F32: 4, F64: 8, CharPrim: 1, BoolPrim: 1,
}

var unsignedPrimitives = map[Primitive]bool{
	U8: true, U16: true, U32: true, U64: true, CharPrim: true, BoolPrim: true,
}

// IsFloatingPoint reports whether p is f32 or f64.
func (p Primitive) IsFloatingPoint() bool { return p == F32 || p == F64 }

// IsInteger reports whether p is an integer (incl. char/bool, which behave
// as small unsigned integers for arithmetic purposes in this language).
func (p Primitive) IsInteger() bool {
	switch p {
	case U8, I8, U16, I16, U32, I32, U64, I64, CharPrim, BoolPrim:
		return true
	}
	return false
}

// Unsigned reports whether p is an unsigned integer primitive.
func (p Primitive) Unsigned() bool { return unsignedPrimitives[p] }

// Mutability is a per-type attribute (spec.md §3.1): every composite type
// exists in both a Mutable and an Immutable interned form.
type Mutability bool

const (
	Immutable Mutability = false
	Mutable   Mutability = true
)

func (m Mutability) String() string {
	if m == Mutable {
		return "mut"
	}
	return "immut"
}

// Field is an ordered (name, type) pair used for struct fields and union
// members.
type Field struct {
	Name   string
	Type   *Type
	Offset int // byte offset within the struct; meaningless for unions
}

// EnumMember is a (name, value) pair.
type EnumMember struct {
	Name  string
	Value int64
}

// Type is an interned, possibly-composite type value (spec.md §3.1).
type Type struct {
	class Class
	mut   Mutability

	// Basic
	primitive Primitive

	// Pointer / Reference / Array / Alias
	elem *Type

	// Array
	arrayLen        int
	arrayIncomplete bool

	// Struct / Union
	name         string
	fields       []Field // struct: ordered fields. union: members (Offset unused)
	alignedSize  int
	complete     bool

	// Enum
	enumMembers []EnumMember
	enumRepr    Primitive

	// FunctionSignature
	params      []*Type
	returnType  *Type
	returnsVoid bool
	isPublic    bool

	// Alias
	aliasName string

	size int
	key  hash.Hash
}

// Class returns the type's structural class.
func (t *Type) Class() Class { return t.class }

// Mutability returns the type's mutability.
func (t *Type) Mutability() Mutability { return t.mut }

// IsMutable reports whether t is mutable.
func (t *Type) IsMutable() bool { return t.mut == Mutable }

// Primitive returns the basic primitive kind; valid only if Class()==Basic.
func (t *Type) Primitive() Primitive { return t.primitive }

// Elem returns the pointee/referent/element/aliasee type.
func (t *Type) Elem() *Type { return t.elem }

// ArrayLen returns the number of elements; 0 means incomplete (spec.md §3.1).
func (t *Type) ArrayLen() int { return t.arrayLen }

// IsIncompleteArray reports whether this is a 0-bound array awaiting an
// initializer to fix its length.
func (t *Type) IsIncompleteArray() bool { return t.class == Array && t.arrayIncomplete }

// Fields returns a struct's fields (declaration order) or a union's members.
func (t *Type) Fields() []Field { return t.fields }

// EnumMembers returns an enum's (name, value) pairs.
func (t *Type) EnumMembers() []EnumMember { return t.enumMembers }

// EnumRepr returns the enum's underlying unsigned integer primitive.
func (t *Type) EnumRepr() Primitive { return t.enumRepr }

// Params returns a function signature's parameter types.
func (t *Type) Params() []*Type { return t.params }

// ReturnType returns a function signature's return type.
func (t *Type) ReturnType() *Type { return t.returnType }

// ReturnsVoid reports whether a function signature returns void.
func (t *Type) ReturnsVoid() bool { return t.returnsVoid }

// IsPublic reports whether a function signature was declared pub.
func (t *Type) IsPublic() bool { return t.isPublic }

// Complete reports whether a struct/union/array is complete (spec.md §3.1).
func (t *Type) Complete() bool {
	switch t.class {
	case Struct, Union:
		return t.complete
	case Array:
		return !t.arrayIncomplete
	default:
		return true
	}
}

// Size returns the type's size in bytes. Valid only for complete types.
func (t *Type) Size() int { return t.size }

// Name returns the canonical name used only for diagnostics (spec.md §3.1).
func (t *Type) Name() string {
	switch t.class {
	case Basic:
		return mutPrefix(t.mut) + primitiveNames[t.primitive]
	case Pointer:
		return t.elem.Name() + " " + mutPrefix(t.mut) + "*"
	case Reference:
		return t.elem.Name() + " " + mutPrefix(t.mut) + "&"
	case Array:
		if t.arrayIncomplete {
			return fmt.Sprintf("%s%s[]", mutPrefix(t.mut), t.elem.Name())
		}
		return fmt.Sprintf("%s%s[%d]", mutPrefix(t.mut), t.elem.Name(), t.arrayLen)
	case Struct:
		return mutPrefix(t.mut) + "struct " + t.name
	case Union:
		return mutPrefix(t.mut) + "union " + t.name
	case Enum:
		return mutPrefix(t.mut) + "enum " + t.name
	case FunctionSignature:
		parts := make([]string, len(t.params))
		for i, p := range t.params {
			parts[i] = p.Name()
		}
		ret := "void"
		if !t.returnsVoid {
			ret = t.returnType.Name()
		}
		return fmt.Sprintf("fn(%s) -> %s", strings.Join(parts, ", "), ret)
	case Alias:
		return t.aliasName
	default:
		return "?"
	}
}

func mutPrefix(m Mutability) string {
	if m == Mutable {
		return "mut "
	}
	return ""
}

// Registry is the component-D type registry: one per ParserContext
// (spec.md §9 replaces the teacher's/original C's process-wide statics with
// state explicitly owned by the top-level entry point).
type Registry struct {
	basics   [2]map[Primitive]*Type // indexed by Mutability
	interned map[hash.Hash]*Type    // pointer/reference/array/fn-sig dedup, keyed structurally
	named    map[string][2]*Type    // struct/union/enum/alias name -> [immutable, mutable]

	// Prebound primitive+pointer handles, cached once at startup the way the
	// original C parser cached immut_char, immut_u8, ..., immut_char_ptr.
	ImmutChar    *Type
	ImmutU8      *Type
	ImmutCharPtr *Type
	ImmutVoidPtr *Type
	MutVoidPtr   *Type
}

// NewRegistry creates a registry with every primitive pre-registered in
// both mutability forms (spec.md §3.1 invariant (i)).
func NewRegistry() *Registry {
	r := &Registry{
		basics:   [2]map[Primitive]*Type{{}, {}},
		interned: map[hash.Hash]*Type{},
		named:    map[string][2]*Type{},
	}
	for p := range primitiveNames {
		for _, m := range []Mutability{Immutable, Mutable} {
			r.basics[boolIdx(m)][p] = &Type{class: Basic, mut: m, primitive: p, size: primitiveSizes[p]}
		}
	}
	r.ImmutChar = r.Basic(CharPrim, Immutable)
	r.ImmutU8 = r.Basic(U8, Immutable)
	r.ImmutCharPtr = r.PointerTo(r.ImmutChar, Immutable)
	voidImmut := r.Basic(Void, Immutable)
	r.ImmutVoidPtr = r.PointerTo(voidImmut, Immutable)
	r.MutVoidPtr = r.PointerTo(voidImmut, Mutable)
	return r
}

func boolIdx(m Mutability) int {
	if m {
		return 1
	}
	return 0
}

// Basic returns the interned primitive type (invariant (i): registered
// exactly once per mutability).
func (r *Registry) Basic(p Primitive, mut Mutability) *Type {
	t, ok := r.basics[boolIdx(mut)][p]
	must.True(ok, "unregistered primitive %v", p)
	return t
}

// PointerTo interns (or reuses) Pointer<elem, mut> (invariant (ii)).
func (r *Registry) PointerTo(elem *Type, mut Mutability) *Type {
	key := structuralKey(Pointer, mut, elemKey(elem), hash.Empty)
	if t, ok := r.interned[key]; ok {
		return t
	}
	t := &Type{class: Pointer, mut: mut, elem: elem, size: 8, key: key}
	r.interned[key] = t
	return t
}

// ReferenceTo interns (or reuses) Reference<elem, mut>.
func (r *Registry) ReferenceTo(elem *Type, mut Mutability) *Type {
	key := structuralKey(Reference, mut, elemKey(elem), hash.Empty)
	if t, ok := r.interned[key]; ok {
		return t
	}
	t := &Type{class: Reference, mut: mut, elem: elem, size: 8, key: key}
	r.interned[key] = t
	return t
}

// ArrayOf interns (or reuses) Array<elem, n, mut>. n==0 yields an
// incomplete array (spec.md §3.1, §8 boundary behaviors).
func (r *Registry) ArrayOf(elem *Type, n int, mut Mutability) *Type {
	key := structuralKey(Array, mut, elemKey(elem), hash.Int(int64(n)))
	if t, ok := r.interned[key]; ok {
		return t
	}
	t := &Type{class: Array, mut: mut, elem: elem, arrayLen: n, key: key}
	if n == 0 {
		t.arrayIncomplete = true
	} else {
		t.size = elem.size * n
	}
	r.interned[key] = t
	return t
}

// FixArrayBound returns the complete array type for a previously-incomplete
// one once an initializer reveals its length (spec.md §4.H
// validate_initializer rule 1): the interned Array<elem, n, mut> with the
// same element and mutability. The incomplete type itself is left unchanged.
func (r *Registry) FixArrayBound(incomplete *Type, n int) *Type {
	must.True(incomplete.class == Array && incomplete.arrayIncomplete, "not an incomplete array")
	return r.ArrayOf(incomplete.elem, n, incomplete.mut)
}

func elemKey(t *Type) hash.Hash {
	if t == nil {
		return hash.Empty
	}
	return t.structuralHash()
}

func (t *Type) structuralHash() hash.Hash {
	if t.key != hash.Empty {
		return t.key
	}
	switch t.class {
	case Basic:
		return hash.String("basic").Merge(hash.Int(int64(t.primitive))).Merge(hash.Int(int64(boolIdx(t.mut))))
	default:
		// Named composite types and function signatures are identified by their
		// declaration-site name/shape, not recomputed here; interning for those
		// goes through StructBuilder/Union/Enum/FunctionSignature below.
		return hash.String(t.Name())
	}
}

func structuralKey(c Class, mut Mutability, elem, extra hash.Hash) hash.Hash {
	return hash.String(c.String()).Merge(hash.Int(int64(boolIdx(mut)))).Merge(elem).Merge(extra)
}

// StructBuilder accumulates fields for a `define struct` declaration
// (spec.md §4.H). Call AddField per member, then Complete to produce the
// interned mutable/immutable pair.
type StructBuilder struct {
	r      *Registry
	name   string
	fields []Field
}

// NewStructBuilder begins defining a struct named name.
func (r *Registry) NewStructBuilder(name string) *StructBuilder {
	return &StructBuilder{r: r, name: name}
}

// AddField appends a field in declaration order.
func (b *StructBuilder) AddField(name string, t *Type) {
	b.fields = append(b.fields, Field{Name: name, Type: t})
}

// Complete finalizes alignment/size and interns both mutability forms,
// sharing field layout (spec.md §3.1 invariant (vi): declaration order,
// offsets and trailing padding computed on completion).
func (b *StructBuilder) Complete() (mutable, immutable *Type) {
	align := 1
	offset := 0
	for i := range b.fields {
		fa := fieldAlign(b.fields[i].Type)
		if fa > align {
			align = fa
		}
		offset = alignUp(offset, fa)
		b.fields[i].Offset = offset
		offset += b.fields[i].Type.size
	}
	size := alignUp(offset, align)

	mk := [2]*Type{}
	for _, m := range []Mutability{Immutable, Mutable} {
		mk[boolIdx(m)] = &Type{
			class: Struct, mut: m, name: b.name,
			fields: append([]Field(nil), b.fields...),
			size:   size, complete: true,
		}
	}
	b.r.named[b.name] = mk
	return mk[boolIdx(Mutable)], mk[boolIdx(Immutable)]
}

func fieldAlign(t *Type) int {
	if t.size == 0 {
		return 1
	}
	if t.size > 8 {
		return 8
	}
	return t.size
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// UnionBuilder accumulates members for a `define union` declaration. Unlike
// structs, a union's two mutability variants must share identical member
// variable records (spec.md §4.H); the builder still produces two distinct
// interned Types, but the caller (declaration parser) is responsible for
// installing a single shared VariableRecord per member.
type UnionBuilder struct {
	r       *Registry
	name    string
	members []Field
}

// NewUnionBuilder begins defining a union named name.
func (r *Registry) NewUnionBuilder(name string) *UnionBuilder {
	return &UnionBuilder{r: r, name: name}
}

// AddMember appends a member.
func (b *UnionBuilder) AddMember(name string, t *Type) {
	b.members = append(b.members, Field{Name: name, Type: t})
}

// Complete finalizes the union, sizing it to its largest member.
func (b *UnionBuilder) Complete() (mutable, immutable *Type) {
	size := 0
	for _, m := range b.members {
		if m.Type.size > size {
			size = m.Type.size
		}
	}
	mk := [2]*Type{}
	for _, m := range []Mutability{Immutable, Mutable} {
		mk[boolIdx(m)] = &Type{
			class: Union, mut: m, name: b.name,
			fields: append([]Field(nil), b.members...),
			size:   size, complete: true,
		}
	}
	b.r.named[b.name] = mk
	return mk[boolIdx(Mutable)], mk[boolIdx(Immutable)]
}

// NewEnum defines an enum type (spec.md §4.H). The underlying integer
// representation is the smallest unsigned primitive that fits maxValue
// (spec.md §3.1 invariant (v), §8 boundary behaviors).
func (r *Registry) NewEnum(name string, members []EnumMember) (mutable, immutable *Type) {
	var maxValue int64
	for _, m := range members {
		if m.Value > maxValue {
			maxValue = m.Value
		}
	}
	repr := enumReprFor(maxValue)
	mk := [2]*Type{}
	for _, m := range []Mutability{Immutable, Mutable} {
		mk[boolIdx(m)] = &Type{
			class: Enum, mut: m, name: name,
			enumMembers: append([]EnumMember(nil), members...),
			enumRepr:    repr, size: primitiveSizes[repr], complete: true,
		}
	}
	r.named[name] = mk
	return mk[boolIdx(Mutable)], mk[boolIdx(Immutable)]
}

// enumReprFor picks the smallest unsigned integer type holding maxValue
// (spec.md §8: 0xFF -> u8, 0x100 -> u16, 0x10000 -> u32).
func enumReprFor(maxValue int64) Primitive {
	switch {
	case maxValue <= 0xFF:
		return U8
	case maxValue <= 0xFFFF:
		return U16
	default:
		return U32
	}
}

// NewFunctionSignature interns a function-pointer/function signature type
// (spec.md §3.1 invariant (iv): at most 6 parameters).
func (r *Registry) NewFunctionSignature(params []*Type, ret *Type, returnsVoid, isPublic bool) *Type {
	must.True(len(params) <= 6, "too many parameters in function signature")
	key := hash.String("fnsig").Merge(hash.Int(int64(len(params))))
	for _, p := range params {
		key = key.Merge(elemKey(p))
	}
	if !returnsVoid {
		key = key.Merge(elemKey(ret))
	}
	if t, ok := r.interned[key]; ok {
		return t
	}
	t := &Type{
		class: FunctionSignature, mut: Immutable,
		params: append([]*Type(nil), params...), returnType: ret,
		returnsVoid: returnsVoid, isPublic: isPublic, size: 8, key: key,
	}
	r.interned[key] = t
	return t
}

// Alias interns `alias T as Name`. The alias takes T's mutability
// (spec.md §4.H).
func (r *Registry) Alias(name string, target *Type) *Type {
	t := &Type{class: Alias, mut: target.mut, elem: target, aliasName: name, size: target.size, complete: target.Complete()}
	r.named[name] = [2]*Type{t, t}
	return t
}

// Dealias chases an Alias chain until reaching a concrete type class
// (spec.md GLOSSARY, §3.1 invariant (iii)).
func Dealias(t *Type) *Type {
	for t.class == Alias {
		t = t.elem
	}
	return t
}

// GetStructField looks up a field by name; ok is false if absent.
func GetStructField(t *Type, name string) (Field, bool) {
	t = Dealias(t)
	for _, f := range t.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// GetUnionMember looks up a union member by name.
func GetUnionMember(t *Type, name string) (Field, bool) {
	return GetStructField(t, name)
}

// GetEnumMember looks up an enum member by name.
func GetEnumMember(t *Type, name string) (EnumMember, bool) {
	t = Dealias(t)
	for _, m := range t.enumMembers {
		if m.Name == name {
			return m, true
		}
	}
	return EnumMember{}, false
}

// TypesEqual is raw structural/interning equality. Per spec.md §3.1
// invariant (iii), Alias and its target never compare equal here: callers
// must Dealias first if alias-transparent comparison is wanted.
func TypesEqual(a, b *Type) bool { return a == b }

// IsVoid reports whether t (without dealiasing) is the void primitive.
func IsVoid(t *Type) bool { return t.class == Basic && t.primitive == Void }

// IsFloatingPoint reports whether the dealiased t is f32 or f64.
func IsFloatingPoint(t *Type) bool {
	t = Dealias(t)
	return t.class == Basic && t.primitive.IsFloatingPoint()
}

// IsMemoryRegion reports whether the dealiased t is struct, union, or array
// (spec.md GLOSSARY).
func IsMemoryRegion(t *Type) bool {
	t = Dealias(t)
	return t.class == Struct || t.class == Union || t.class == Array
}

// IsTypeValidForConditional reports whether t may appear as an if/while/
// ternary/switch condition: bool, any integer, char, or enum. Floats,
// void, pointers, references, and memory regions are rejected. This
// specific boundary (no implicit pointer truthiness) is an Open Question
// resolution recorded in DESIGN.md.
func IsTypeValidForConditional(t *Type) bool {
	t = Dealias(t)
	if t.class == Enum {
		return true
	}
	if t.class != Basic {
		return false
	}
	return t.primitive == BoolPrim || (t.primitive.IsInteger() && t.primitive != BoolPrim) || t.primitive == CharPrim
}

// IsTypeValidForMemoryAddressing reports whether & may be applied: any
// complete, non-void type.
func IsTypeValidForMemoryAddressing(t *Type) bool {
	return !IsVoid(t) && t.Complete()
}

// IsExhaustiveSwitchEligible reports whether a switch on t may omit
// `default` when its cases are gapless and cover every value of t
// (spec.md §4.G, §8): true for bool,
// u8, i8, char, enum; false for wider integers.
func IsExhaustiveSwitchEligible(t *Type) bool {
	t = Dealias(t)
	if t.class == Enum {
		return true
	}
	if t.class != Basic {
		return false
	}
	switch t.primitive {
	case BoolPrim, U8, I8, CharPrim:
		return true
	default:
		return false
	}
}

// Side distinguishes which operand of an assignment/binary op a type
// check is examining, for per-side operator validity (spec.md §3.1
// `is_binary_op_valid(T, op, side)`).
type Side int

const (
	LeftSide Side = iota
	RightSide
)

// BinaryOp enumerates the binary operator families is_binary_op_valid and
// DetermineCompatibilityAndCoerce discriminate on. Kept independent of
// package ast's finer-grained Op so internal/types has no dependency on
// internal/ast (spec.md §9: ast depends on types, never the reverse).
type BinaryOp int

const (
	OpArithmetic BinaryOp = iota
	OpShift
	OpBitwise
	OpRelational
	OpEquality
	OpLogical
)

// IsBinaryOpValid reports whether t may appear on the given side of a
// binary operator of family op (spec.md §3.1 `is_binary_op_valid`).
func IsBinaryOpValid(t *Type, op BinaryOp, side Side) bool {
	t = Dealias(t)
	switch op {
	case OpArithmetic:
		if t.class == Pointer && side == LeftSide {
			return !IsVoid(t.elem)
		}
		return t.class == Basic && t.primitive != Void && t.primitive != BoolPrim
	case OpShift:
		if side == RightSide {
			return t.class == Basic && t.primitive.IsInteger()
		}
		return t.class == Basic && t.primitive.IsInteger()
	case OpBitwise:
		return t.class == Basic && t.primitive.IsInteger()
	case OpRelational:
		return t.class == Basic && (t.primitive.IsInteger() || t.primitive.IsFloatingPoint()) || t.class == Pointer
	case OpEquality:
		return t.class == Basic || t.class == Pointer || t.class == Enum
	case OpLogical:
		return IsTypeValidForConditional(t)
	default:
		return false
	}
}

// UnaryOp enumerates unary operator families for IsUnaryOpValid.
type UnaryOp int

const (
	UnaryArithmeticNeg UnaryOp = iota
	UnaryBitwiseNot
	UnaryLogicalNot
	UnaryIncDec
	UnaryDeref
	UnaryAddrOf
)

// IsUnaryOpValid reports whether op may apply to t (spec.md §4.F).
func IsUnaryOpValid(t *Type, op UnaryOp) bool {
	dt := Dealias(t)
	switch op {
	case UnaryArithmeticNeg:
		return dt.class == Basic && (dt.primitive.IsInteger() || dt.primitive.IsFloatingPoint()) && dt.primitive != BoolPrim
	case UnaryBitwiseNot:
		return dt.class == Basic && dt.primitive.IsInteger()
	case UnaryLogicalNot:
		return IsTypeValidForConditional(dt)
	case UnaryIncDec:
		return (dt.class == Basic && (dt.primitive.IsInteger() || dt.primitive.IsFloatingPoint()) && dt.primitive != BoolPrim) || dt.class == Pointer
	case UnaryDeref:
		return (dt.class == Pointer || dt.class == Array) && !IsVoid(dt.elem)
	case UnaryAddrOf:
		return IsTypeValidForMemoryAddressing(t)
	default:
		return false
	}
}

// TypesAssignable implements spec.md §4.D `types_assignable(target,
// source) -> Option<Type>`. It is type-only: when a constant AST node's
// storage class must be rewritten to match the result, the caller (the
// expression/declaration parser) does that afterwards via
// fold.CoerceConstant — keeping this package free of any dependency on
// package ast (spec.md §9 dependency direction).
func TypesAssignable(target, source *Type) (*Type, bool) {
	dt, ds := Dealias(target), Dealias(source)

	if IsVoid(dt) || IsVoid(ds) {
		if dt.class == Pointer && ds.class == Pointer && IsVoid(ds.elem) {
			// fallthrough to pointer rule below (`T* := void*`-shaped checks
			// are handled there; void itself is never assignable elsewhere).
		} else {
			return nil, false
		}
	}

	switch {
	case dt.class == Basic && ds.class == Basic:
		if dt.primitive.IsInteger() && ds.primitive.IsInteger() {
			if widthBits(ds.primitive) <= widthBits(dt.primitive) {
				return target, true
			}
			return target, true // narrower target: widen source to target (coercion is caller's job)
		}
		if dt.primitive.IsFloatingPoint() && ds.primitive.IsFloatingPoint() {
			return target, true
		}
		if dt.primitive == ds.primitive {
			return target, true
		}
		// integer<->float across classes requires an explicit cast (rule 3).
		return nil, false

	case dt.class == Pointer && ds.class == Pointer:
		sameElem := dt.elem == ds.elem || IsVoid(dt.elem) || IsVoid(ds.elem)
		if !sameElem {
			return nil, false
		}
		if dt.mut == Mutable && ds.elem.mut == Immutable && !IsVoid(dt.elem) && !IsVoid(ds.elem) {
			return nil, false
		}
		return target, true

	case dt.class == Array && ds.class == Pointer, dt.class == Pointer && ds.class == Array:
		var arrElem, ptrElem *Type
		var ptrMut Mutability
		if dt.class == Pointer {
			ptrElem, ptrMut = dt.elem, dt.mut
			arrElem = ds.elem
		} else {
			ptrElem, ptrMut = ds.elem, ds.mut
			arrElem = dt.elem
		}
		if ptrElem != arrElem && !IsVoid(ptrElem) {
			return nil, false
		}
		if ptrMut == Mutable && arrElem.mut == Immutable {
			return nil, false
		}
		return target, true

	case dt.class == Reference:
		// Reference-to-reference assignment via plain `let x = y;` is
		// forbidden (spec.md §4.D rule 5); callers enforce that distinction
		// since it depends on syntactic shape (identifier vs. reference
		// expression), not on types alone. At the type level a reference
		// target accepts a reference to (or a value of) the same element.
		elemOfSource := ds.elem
		if ds.class != Reference {
			elemOfSource = ds
		}
		if elemOfSource != dt.elem {
			return nil, false
		}
		return target, true

	case dt.class == FunctionSignature && ds.class == FunctionSignature:
		if functionSignaturesEqual(dt, ds) {
			return target, true
		}
		return nil, false

	case dt.class == Enum:
		if ds.class == Basic && ds.primitive.IsInteger() {
			if widthBits(ds.primitive) <= widthBits(dt.enumRepr) || ds.primitive == dt.enumRepr {
				return target, true
			}
		}
		if ds.class == Enum && ds == dt {
			return target, true
		}
		return nil, false

	default:
		return nil, false
	}
}

func functionSignaturesEqual(a, b *Type) bool {
	if len(a.params) != len(b.params) || a.returnsVoid != b.returnsVoid {
		return false
	}
	if !a.returnsVoid && a.returnType != b.returnType {
		return false
	}
	for i := range a.params {
		if a.params[i] != b.params[i] {
			return false
		}
	}
	return true
}

func widthBits(p Primitive) int {
	switch p {
	case I8, U8, CharPrim, BoolPrim:
		return 8
	case I16, U16:
		return 16
	case I32, U32:
		return 32
	default:
		return 64
	}
}

// DetermineCompatibilityAndCoerce implements spec.md §4.D
// `determine_compatibility_and_coerce(&mut L, &mut R, op)`: symmetric,
// operator-aware unification used by the expression parser's binary-
// operator rule. It returns the result type and the two (possibly
// widened) operand types the caller should re-tag its operand nodes with
// before constant-folding or coercing either side. It is a Registry
// method (rather than a free function) solely so relational/equality/
// logical results can return the registry's single interned `bool` type.
func (r *Registry) DetermineCompatibilityAndCoerce(left, right *Type, op BinaryOp) (result, leftOut, rightOut *Type, ok bool) {
	dl, dr := Dealias(left), Dealias(right)
	boolType := r.Basic(BoolPrim, Immutable)
	switch op {
	case OpShift:
		if !IsBinaryOpValid(dl, op, LeftSide) || !IsBinaryOpValid(dr, op, RightSide) {
			return nil, nil, nil, false
		}
		return left, left, right, true
	case OpRelational, OpEquality:
		if !IsBinaryOpValid(dl, op, LeftSide) || !IsBinaryOpValid(dr, op, RightSide) {
			return nil, nil, nil, false
		}
		wide := widerOf(dl, dr)
		return boolType, wide, wide, true
	case OpLogical:
		if !IsTypeValidForConditional(dl) || !IsTypeValidForConditional(dr) {
			return nil, nil, nil, false
		}
		return boolType, dl, dr, true
	case OpArithmetic:
		if dl.class == Pointer || dr.class == Pointer {
			ptr, other := dl, dr
			if dr.class == Pointer {
				ptr, other = dr, dl
			}
			if !IsBinaryOpValid(ptr, op, LeftSide) || !(other.class == Basic && other.primitive.IsInteger()) {
				return nil, nil, nil, false
			}
			return ptr, ptr, other, true
		}
		if !IsBinaryOpValid(dl, op, LeftSide) || !IsBinaryOpValid(dr, op, RightSide) {
			return nil, nil, nil, false
		}
		wide := widerOf(dl, dr)
		return wide, wide, wide, true
	case OpBitwise:
		if !IsBinaryOpValid(dl, op, LeftSide) || !IsBinaryOpValid(dr, op, RightSide) {
			return nil, nil, nil, false
		}
		wide := widerOf(dl, dr)
		return wide, wide, wide, true
	default:
		return nil, nil, nil, false
	}
}

// widerOf picks the larger-width basic type, preferring floating point
// over integer and the left operand on an exact tie (arithmetic/bitwise
// widening rule of spec.md §4.D).
func widerOf(a, b *Type) *Type {
	if a.class != Basic || b.class != Basic {
		if a.class == Basic {
			return b
		}
		return a
	}
	af, bf := a.primitive.IsFloatingPoint(), b.primitive.IsFloatingPoint()
	if af != bf {
		if af {
			return a
		}
		return b
	}
	if widthBits(a.primitive) >= widthBits(b.primitive) {
		return a
	}
	return b
}
