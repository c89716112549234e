package cpu

import "math"

// Float library: read F (and G where binary), write F. Mirrors the
// reference emulator's direct use of the host math library.
func init() {
	defOp(POW, func(c *CPU, imm int32) { c.F = math.Pow(c.F, c.G) })
	defOp(ATN2, func(c *CPU, imm int32) { c.F = math.Atan2(c.F, c.G) })
	defOp(FABS, func(c *CPU, imm int32) { c.F = math.Abs(c.F) })
	defOp(ATAN, func(c *CPU, imm int32) { c.F = math.Atan(c.F) })
	defOp(LOG, func(c *CPU, imm int32) {
		if c.F != 0 {
			c.F = math.Log(c.F)
		}
	})
	defOp(LOGT, func(c *CPU, imm int32) {
		if c.F != 0 {
			c.F = math.Log10(c.F)
		}
	})
	defOp(EXP, func(c *CPU, imm int32) { c.F = math.Exp(c.F) })
	defOp(FLOR, func(c *CPU, imm int32) { c.F = math.Floor(c.F) })
	defOp(CEIL, func(c *CPU, imm int32) { c.F = math.Ceil(c.F) })
	defOp(HYPO, func(c *CPU, imm int32) { c.F = math.Hypot(c.F, c.G) })
	defOp(SIN, func(c *CPU, imm int32) { c.F = math.Sin(c.F) })
	defOp(COS, func(c *CPU, imm int32) { c.F = math.Cos(c.F) })
	defOp(TAN, func(c *CPU, imm int32) { c.F = math.Tan(c.F) })
	defOp(ASIN, func(c *CPU, imm int32) { c.F = math.Asin(c.F) })
	defOp(ACOS, func(c *CPU, imm int32) { c.F = math.Acos(c.F) })
	defOp(SINH, func(c *CPU, imm int32) { c.F = math.Sinh(c.F) })
	defOp(COSH, func(c *CPU, imm int32) { c.F = math.Cosh(c.F) })
	defOp(TANH, func(c *CPU, imm int32) { c.F = math.Tanh(c.F) })
	defOp(SQRT, func(c *CPU, imm int32) { c.F = math.Sqrt(c.F) })
	defOp(FMOD, func(c *CPU, imm int32) { c.F = math.Mod(c.F, c.G) })
}
