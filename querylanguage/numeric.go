package querylanguage

import "strconv"

// Integer and floating-point typed predicates. One block per Go numeric
// type, following the same Nil/NotNil/EQ/NEQ/ordering/Or/And/Not shape
// as the String and Time predicates in types.go.

type IntP = TypedP[int]

func fmtInt(v int) string { return strconv.Itoa(v) }

func IntNil() IntP        { return typedNil[int]() }
func IntNotNil() IntP     { return typedNotNil[int]() }
func IntEQ(v int) IntP    { return typedCmp("==", v, fmtInt) }
func IntNEQ(v int) IntP   { return typedCmp("!=", v, fmtInt) }
func IntGT(v int) IntP    { return typedCmp(">", v, fmtInt) }
func IntGTE(v int) IntP   { return typedCmp(">=", v, fmtInt) }
func IntLT(v int) IntP    { return typedCmp("<", v, fmtInt) }
func IntLTE(v int) IntP   { return typedCmp("<=", v, fmtInt) }
func IntOr(ps ...IntP) IntP  { return typedOr(ps...) }
func IntAnd(ps ...IntP) IntP { return typedAnd(ps...) }
func IntNot(p IntP) IntP     { return typedNot(p) }

type Int8P = TypedP[int8]

func fmtInt8(v int8) string { return strconv.FormatInt(int64(v), 10) }

func Int8Nil() Int8P       { return typedNil[int8]() }
func Int8NotNil() Int8P    { return typedNotNil[int8]() }
func Int8EQ(v int8) Int8P  { return typedCmp("==", v, fmtInt8) }
func Int8NEQ(v int8) Int8P { return typedCmp("!=", v, fmtInt8) }
func Int8GT(v int8) Int8P  { return typedCmp(">", v, fmtInt8) }
func Int8GTE(v int8) Int8P { return typedCmp(">=", v, fmtInt8) }
func Int8LT(v int8) Int8P  { return typedCmp("<", v, fmtInt8) }
func Int8LTE(v int8) Int8P { return typedCmp("<=", v, fmtInt8) }
func Int8Or(ps ...Int8P) Int8P  { return typedOr(ps...) }
func Int8And(ps ...Int8P) Int8P { return typedAnd(ps...) }
func Int8Not(p Int8P) Int8P     { return typedNot(p) }

type Int16P = TypedP[int16]

func fmtInt16(v int16) string { return strconv.FormatInt(int64(v), 10) }

func Int16Nil() Int16P        { return typedNil[int16]() }
func Int16NotNil() Int16P     { return typedNotNil[int16]() }
func Int16EQ(v int16) Int16P  { return typedCmp("==", v, fmtInt16) }
func Int16NEQ(v int16) Int16P { return typedCmp("!=", v, fmtInt16) }
func Int16GT(v int16) Int16P  { return typedCmp(">", v, fmtInt16) }
func Int16GTE(v int16) Int16P { return typedCmp(">=", v, fmtInt16) }
func Int16LT(v int16) Int16P  { return typedCmp("<", v, fmtInt16) }
func Int16LTE(v int16) Int16P { return typedCmp("<=", v, fmtInt16) }
func Int16Or(ps ...Int16P) Int16P  { return typedOr(ps...) }
func Int16And(ps ...Int16P) Int16P { return typedAnd(ps...) }
func Int16Not(p Int16P) Int16P     { return typedNot(p) }

type Int32P = TypedP[int32]

func fmtInt32(v int32) string { return strconv.FormatInt(int64(v), 10) }

func Int32Nil() Int32P        { return typedNil[int32]() }
func Int32NotNil() Int32P     { return typedNotNil[int32]() }
func Int32EQ(v int32) Int32P  { return typedCmp("==", v, fmtInt32) }
func Int32NEQ(v int32) Int32P { return typedCmp("!=", v, fmtInt32) }
func Int32GT(v int32) Int32P  { return typedCmp(">", v, fmtInt32) }
func Int32GTE(v int32) Int32P { return typedCmp(">=", v, fmtInt32) }
func Int32LT(v int32) Int32P  { return typedCmp("<", v, fmtInt32) }
func Int32LTE(v int32) Int32P { return typedCmp("<=", v, fmtInt32) }
func Int32Or(ps ...Int32P) Int32P  { return typedOr(ps...) }
func Int32And(ps ...Int32P) Int32P { return typedAnd(ps...) }
func Int32Not(p Int32P) Int32P     { return typedNot(p) }

type Int64P = TypedP[int64]

func fmtInt64(v int64) string { return strconv.FormatInt(v, 10) }

func Int64Nil() Int64P        { return typedNil[int64]() }
func Int64NotNil() Int64P     { return typedNotNil[int64]() }
func Int64EQ(v int64) Int64P  { return typedCmp("==", v, fmtInt64) }
func Int64NEQ(v int64) Int64P { return typedCmp("!=", v, fmtInt64) }
func Int64GT(v int64) Int64P  { return typedCmp(">", v, fmtInt64) }
func Int64GTE(v int64) Int64P { return typedCmp(">=", v, fmtInt64) }
func Int64LT(v int64) Int64P  { return typedCmp("<", v, fmtInt64) }
func Int64LTE(v int64) Int64P { return typedCmp("<=", v, fmtInt64) }
func Int64Or(ps ...Int64P) Int64P  { return typedOr(ps...) }
func Int64And(ps ...Int64P) Int64P { return typedAnd(ps...) }
func Int64Not(p Int64P) Int64P     { return typedNot(p) }

type UintP = TypedP[uint]

func fmtUint(v uint) string { return strconv.FormatUint(uint64(v), 10) }

func UintNil() UintP        { return typedNil[uint]() }
func UintNotNil() UintP     { return typedNotNil[uint]() }
func UintEQ(v uint) UintP   { return typedCmp("==", v, fmtUint) }
func UintNEQ(v uint) UintP  { return typedCmp("!=", v, fmtUint) }
func UintGT(v uint) UintP   { return typedCmp(">", v, fmtUint) }
func UintGTE(v uint) UintP  { return typedCmp(">=", v, fmtUint) }
func UintLT(v uint) UintP   { return typedCmp("<", v, fmtUint) }
func UintLTE(v uint) UintP  { return typedCmp("<=", v, fmtUint) }
func UintOr(ps ...UintP) UintP  { return typedOr(ps...) }
func UintAnd(ps ...UintP) UintP { return typedAnd(ps...) }
func UintNot(p UintP) UintP     { return typedNot(p) }

type Uint8P = TypedP[uint8]

func fmtUint8(v uint8) string { return strconv.FormatUint(uint64(v), 10) }

func Uint8Nil() Uint8P        { return typedNil[uint8]() }
func Uint8NotNil() Uint8P     { return typedNotNil[uint8]() }
func Uint8EQ(v uint8) Uint8P  { return typedCmp("==", v, fmtUint8) }
func Uint8NEQ(v uint8) Uint8P { return typedCmp("!=", v, fmtUint8) }
func Uint8GT(v uint8) Uint8P  { return typedCmp(">", v, fmtUint8) }
func Uint8GTE(v uint8) Uint8P { return typedCmp(">=", v, fmtUint8) }
func Uint8LT(v uint8) Uint8P  { return typedCmp("<", v, fmtUint8) }
func Uint8LTE(v uint8) Uint8P { return typedCmp("<=", v, fmtUint8) }
func Uint8Or(ps ...Uint8P) Uint8P  { return typedOr(ps...) }
func Uint8And(ps ...Uint8P) Uint8P { return typedAnd(ps...) }
func Uint8Not(p Uint8P) Uint8P     { return typedNot(p) }

type Uint16P = TypedP[uint16]

func fmtUint16(v uint16) string { return strconv.FormatUint(uint64(v), 10) }

func Uint16Nil() Uint16P        { return typedNil[uint16]() }
func Uint16NotNil() Uint16P     { return typedNotNil[uint16]() }
func Uint16EQ(v uint16) Uint16P  { return typedCmp("==", v, fmtUint16) }
func Uint16NEQ(v uint16) Uint16P { return typedCmp("!=", v, fmtUint16) }
func Uint16GT(v uint16) Uint16P  { return typedCmp(">", v, fmtUint16) }
func Uint16GTE(v uint16) Uint16P { return typedCmp(">=", v, fmtUint16) }
func Uint16LT(v uint16) Uint16P  { return typedCmp("<", v, fmtUint16) }
func Uint16LTE(v uint16) Uint16P { return typedCmp("<=", v, fmtUint16) }
func Uint16Or(ps ...Uint16P) Uint16P  { return typedOr(ps...) }
func Uint16And(ps ...Uint16P) Uint16P { return typedAnd(ps...) }
func Uint16Not(p Uint16P) Uint16P     { return typedNot(p) }

type Uint32P = TypedP[uint32]

func fmtUint32(v uint32) string { return strconv.FormatUint(uint64(v), 10) }

func Uint32Nil() Uint32P        { return typedNil[uint32]() }
func Uint32NotNil() Uint32P     { return typedNotNil[uint32]() }
func Uint32EQ(v uint32) Uint32P  { return typedCmp("==", v, fmtUint32) }
func Uint32NEQ(v uint32) Uint32P { return typedCmp("!=", v, fmtUint32) }
func Uint32GT(v uint32) Uint32P  { return typedCmp(">", v, fmtUint32) }
func Uint32GTE(v uint32) Uint32P { return typedCmp(">=", v, fmtUint32) }
func Uint32LT(v uint32) Uint32P  { return typedCmp("<", v, fmtUint32) }
func Uint32LTE(v uint32) Uint32P { return typedCmp("<=", v, fmtUint32) }
func Uint32Or(ps ...Uint32P) Uint32P  { return typedOr(ps...) }
func Uint32And(ps ...Uint32P) Uint32P { return typedAnd(ps...) }
func Uint32Not(p Uint32P) Uint32P     { return typedNot(p) }

type Uint64P = TypedP[uint64]

func fmtUint64(v uint64) string { return strconv.FormatUint(v, 10) }

func Uint64Nil() Uint64P        { return typedNil[uint64]() }
func Uint64NotNil() Uint64P     { return typedNotNil[uint64]() }
func Uint64EQ(v uint64) Uint64P  { return typedCmp("==", v, fmtUint64) }
func Uint64NEQ(v uint64) Uint64P { return typedCmp("!=", v, fmtUint64) }
func Uint64GT(v uint64) Uint64P  { return typedCmp(">", v, fmtUint64) }
func Uint64GTE(v uint64) Uint64P { return typedCmp(">=", v, fmtUint64) }
func Uint64LT(v uint64) Uint64P  { return typedCmp("<", v, fmtUint64) }
func Uint64LTE(v uint64) Uint64P { return typedCmp("<=", v, fmtUint64) }
func Uint64Or(ps ...Uint64P) Uint64P  { return typedOr(ps...) }
func Uint64And(ps ...Uint64P) Uint64P { return typedAnd(ps...) }
func Uint64Not(p Uint64P) Uint64P     { return typedNot(p) }

type Float32P = TypedP[float32]

func fmtFloat32(v float32) string { return strconv.FormatFloat(float64(v), 'f', -1, 32) }

func Float32Nil() Float32P          { return typedNil[float32]() }
func Float32NotNil() Float32P       { return typedNotNil[float32]() }
func Float32EQ(v float32) Float32P  { return typedCmp("==", v, fmtFloat32) }
func Float32NEQ(v float32) Float32P { return typedCmp("!=", v, fmtFloat32) }
func Float32GT(v float32) Float32P  { return typedCmp(">", v, fmtFloat32) }
func Float32GTE(v float32) Float32P { return typedCmp(">=", v, fmtFloat32) }
func Float32LT(v float32) Float32P  { return typedCmp("<", v, fmtFloat32) }
func Float32LTE(v float32) Float32P { return typedCmp("<=", v, fmtFloat32) }
func Float32Or(ps ...Float32P) Float32P  { return typedOr(ps...) }
func Float32And(ps ...Float32P) Float32P { return typedAnd(ps...) }
func Float32Not(p Float32P) Float32P     { return typedNot(p) }

type Float64P = TypedP[float64]

func fmtFloat64(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func Float64Nil() Float64P          { return typedNil[float64]() }
func Float64NotNil() Float64P       { return typedNotNil[float64]() }
func Float64EQ(v float64) Float64P  { return typedCmp("==", v, fmtFloat64) }
func Float64NEQ(v float64) Float64P { return typedCmp("!=", v, fmtFloat64) }
func Float64GT(v float64) Float64P  { return typedCmp(">", v, fmtFloat64) }
func Float64GTE(v float64) Float64P { return typedCmp(">=", v, fmtFloat64) }
func Float64LT(v float64) Float64P  { return typedCmp("<", v, fmtFloat64) }
func Float64LTE(v float64) Float64P { return typedCmp("<=", v, fmtFloat64) }
func Float64Or(ps ...Float64P) Float64P  { return typedOr(ps...) }
func Float64And(ps ...Float64P) Float64P { return typedAnd(ps...) }
func Float64Not(p Float64P) Float64P     { return typedNot(p) }
