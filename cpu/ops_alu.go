package cpu

import "vm32/trap"

func (c *CPU) localWord(imm int32) (uint32, bool) {
	return c.loadInt(local(c, imm), 4, false)
}

func init() {
	// float ALU: reads F/G, writes F
	defOp(ADDF, func(c *CPU, imm int32) { c.F += c.G })
	defOp(SUBF, func(c *CPU, imm int32) { c.F -= c.G })
	defOp(MULF, func(c *CPU, imm int32) { c.F *= c.G })
	defOp(DIVF, func(c *CPU, imm int32) {
		if c.G == 0.0 {
			c.Trap = trap.FARITH
			return
		}
		c.F /= c.G
	})

	defOp(ADD, func(c *CPU, imm int32) { c.A += c.B })
	defOp(ADDI, func(c *CPU, imm int32) { c.A += uint32(imm) })
	defOp(ADDL, func(c *CPU, imm int32) {
		if v, ok := c.localWord(imm); ok {
			c.A += v
		}
	})

	defOp(SUB, func(c *CPU, imm int32) { c.A -= c.B })
	defOp(SUBI, func(c *CPU, imm int32) { c.A -= uint32(imm) })
	defOp(SUBL, func(c *CPU, imm int32) {
		if v, ok := c.localWord(imm); ok {
			c.A -= v
		}
	})

	defOp(MUL, func(c *CPU, imm int32) { c.A = uint32(int32(c.A) * int32(c.B)) })
	defOp(MULI, func(c *CPU, imm int32) { c.A = uint32(int32(c.A) * imm) })
	defOp(MULL, func(c *CPU, imm int32) {
		if v, ok := c.localWord(imm); ok {
			c.A = uint32(int32(c.A) * int32(v))
		}
	})

	defOp(DIV, func(c *CPU, imm int32) {
		if c.B == 0 {
			c.Trap = trap.FARITH
			return
		}
		c.A = uint32(int32(c.A) / int32(c.B))
	})
	defOp(DIVI, func(c *CPU, imm int32) {
		if imm == 0 {
			c.Trap = trap.FARITH
			return
		}
		c.A = uint32(int32(c.A) / imm)
	})
	defOp(DIVL, func(c *CPU, imm int32) {
		v, ok := c.localWord(imm)
		if !ok {
			return
		}
		if v == 0 {
			c.Trap = trap.FARITH
			return
		}
		c.A = uint32(int32(c.A) / int32(v))
	})

	defOp(DVU, func(c *CPU, imm int32) {
		if c.B == 0 {
			c.Trap = trap.FARITH
			return
		}
		c.A /= c.B
	})
	defOp(DVUI, func(c *CPU, imm int32) {
		if imm == 0 {
			c.Trap = trap.FARITH
			return
		}
		c.A /= uint32(imm)
	})
	defOp(DVUL, func(c *CPU, imm int32) {
		v, ok := c.localWord(imm)
		if !ok {
			return
		}
		if v == 0 {
			c.Trap = trap.FARITH
			return
		}
		c.A /= v
	})

	defOp(MOD, func(c *CPU, imm int32) {
		if c.B == 0 {
			c.Trap = trap.FARITH
			return
		}
		c.A = uint32(int32(c.A) % int32(c.B))
	})
	defOp(MODI, func(c *CPU, imm int32) {
		if imm == 0 {
			c.Trap = trap.FARITH
			return
		}
		c.A = uint32(int32(c.A) % imm)
	})
	defOp(MODL, func(c *CPU, imm int32) {
		v, ok := c.localWord(imm)
		if !ok {
			return
		}
		if v == 0 {
			c.Trap = trap.FARITH
			return
		}
		c.A = uint32(int32(c.A) % int32(v))
	})

	defOp(MDU, func(c *CPU, imm int32) {
		if c.B == 0 {
			c.Trap = trap.FARITH
			return
		}
		c.A %= c.B
	})
	defOp(MDUI, func(c *CPU, imm int32) {
		if imm == 0 {
			c.Trap = trap.FARITH
			return
		}
		c.A %= uint32(imm)
	})
	defOp(MDUL, func(c *CPU, imm int32) {
		v, ok := c.localWord(imm)
		if !ok {
			return
		}
		if v == 0 {
			c.Trap = trap.FARITH
			return
		}
		c.A %= v
	})

	defOp(AND, func(c *CPU, imm int32) { c.A &= c.B })
	defOp(ANDI, func(c *CPU, imm int32) { c.A &= uint32(imm) })
	defOp(ANDL, func(c *CPU, imm int32) {
		if v, ok := c.localWord(imm); ok {
			c.A &= v
		}
	})

	defOp(OR, func(c *CPU, imm int32) { c.A |= c.B })
	defOp(ORI, func(c *CPU, imm int32) { c.A |= uint32(imm) })
	defOp(ORL, func(c *CPU, imm int32) {
		if v, ok := c.localWord(imm); ok {
			c.A |= v
		}
	})

	defOp(XOR, func(c *CPU, imm int32) { c.A ^= c.B })
	defOp(XORI, func(c *CPU, imm int32) { c.A ^= uint32(imm) })
	defOp(XORL, func(c *CPU, imm int32) {
		if v, ok := c.localWord(imm); ok {
			c.A ^= v
		}
	})

	defOp(SHL, func(c *CPU, imm int32) { c.A <<= c.B })
	defOp(SHLI, func(c *CPU, imm int32) { c.A <<= uint32(imm) })
	defOp(SHLL, func(c *CPU, imm int32) {
		if v, ok := c.localWord(imm); ok {
			c.A <<= v
		}
	})

	defOp(SHR, func(c *CPU, imm int32) { c.A = uint32(int32(c.A) >> c.B) })
	defOp(SHRI, func(c *CPU, imm int32) { c.A = uint32(int32(c.A) >> uint32(imm)) })
	defOp(SHRL, func(c *CPU, imm int32) {
		if v, ok := c.localWord(imm); ok {
			c.A = uint32(int32(c.A) >> v)
		}
	})

	defOp(SRU, func(c *CPU, imm int32) { c.A >>= c.B })
	defOp(SRUI, func(c *CPU, imm int32) { c.A >>= uint32(imm) })
	defOp(SRUL, func(c *CPU, imm int32) {
		if v, ok := c.localWord(imm); ok {
			c.A >>= v
		}
	})

	// comparisons: set A to 0/1
	defOp(EQ, func(c *CPU, imm int32) { c.A = b2u(c.A == c.B) })
	defOp(EQF, func(c *CPU, imm int32) { c.A = b2u(c.F == c.G) })
	defOp(NE, func(c *CPU, imm int32) { c.A = b2u(c.A != c.B) })
	defOp(NEF, func(c *CPU, imm int32) { c.A = b2u(c.F != c.G) })
	defOp(LT, func(c *CPU, imm int32) { c.A = b2u(int32(c.A) < int32(c.B)) })
	defOp(LTU, func(c *CPU, imm int32) { c.A = b2u(c.A < c.B) })
	defOp(LTF, func(c *CPU, imm int32) { c.A = b2u(c.F < c.G) })
	defOp(GE, func(c *CPU, imm int32) { c.A = b2u(int32(c.A) >= int32(c.B)) })
	defOp(GEU, func(c *CPU, imm int32) { c.A = b2u(c.A >= c.B) })
	defOp(GEF, func(c *CPU, imm int32) { c.A = b2u(c.F >= c.G) })

	// conversions
	defOp(CID, func(c *CPU, imm int32) { c.F = float64(int32(c.A)) })
	defOp(CUD, func(c *CPU, imm int32) { c.F = float64(c.A) })
	defOp(CDI, func(c *CPU, imm int32) { c.A = uint32(int32(c.F)) })
	defOp(CDU, func(c *CPU, imm int32) { c.A = uint32(c.F) })
}

func b2u(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
