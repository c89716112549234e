package cpu

import "vm32/trap"

func init() {
	defOp(HALT, func(c *CPU, imm int32) {
		c.halted = true
		if c.Log != nil {
			c.Log.Printf("halt(%d) cycle=%d", int32(c.A), c.Cycle)
		}
	})

	defOp(IDLE, func(c *CPU, imm int32) {
		if c.User {
			c.Trap = trap.FPRIV
			return
		}
		if !c.IEna {
			// An implementer's choice (spec's open question): route
			// through the existing illegal-opcode fault rather than a
			// dedicated one.
			c.Trap = trap.FINST
			return
		}
		for {
			c.tick()
			if c.halted || c.escaped || !c.IEna {
				return
			}
		}
	})

	defOp(NOP, func(c *CPU, imm int32) {})

	defOp(ENT, func(c *CPU, imm int32) { c.SP = uint32(int32(c.SP) + imm) })
	defOp(LEV, func(c *CPU, imm int32) {
		ret, ok := c.loadInt(local(c, imm), 4, false)
		if !ok {
			return
		}
		c.SP = uint32(int32(c.SP)+imm) + 8
		c.PC = ret
	})

	defOp(JMP, func(c *CPU, imm int32) { c.PC = uint32(int32(c.PC) + imm) })
	defOp(JMPI, func(c *CPU, imm int32) {
		addr := uint32(int32(c.PC)+imm) + c.A*4
		disp, ok := c.loadInt(addr, 4, false)
		if !ok {
			return
		}
		c.PC = uint32(int32(c.PC) + int32(disp))
	})
	defOp(JSR, func(c *CPU, imm int32) {
		ret := c.PC
		if !c.push8(uint64(ret), 4) {
			return
		}
		c.PC = uint32(int32(ret) + imm)
	})
	defOp(JSRA, func(c *CPU, imm int32) {
		ret := c.PC
		if !c.push8(uint64(ret), 4) {
			return
		}
		c.PC = c.A
	})

	branch := func(op opcode, taken func(c *CPU) bool) {
		defOp(op, func(c *CPU, imm int32) {
			if taken(c) {
				c.PC = uint32(int32(c.PC) + imm)
			}
		})
	}
	branch(BZ, func(c *CPU) bool { return c.A == 0 })
	branch(BZF, func(c *CPU) bool { return c.F == 0 })
	branch(BNZ, func(c *CPU) bool { return c.A != 0 })
	branch(BNZF, func(c *CPU) bool { return c.F != 0 })
	branch(BE, func(c *CPU) bool { return c.A == c.B })
	branch(BEF, func(c *CPU) bool { return c.F == c.G })
	branch(BNE, func(c *CPU) bool { return c.A != c.B })
	branch(BNEF, func(c *CPU) bool { return c.F != c.G })
	branch(BLT, func(c *CPU) bool { return int32(c.A) < int32(c.B) })
	branch(BLTU, func(c *CPU) bool { return c.A < c.B })
	branch(BLTF, func(c *CPU) bool { return c.F < c.G })
	branch(BGE, func(c *CPU) bool { return int32(c.A) >= int32(c.B) })
	branch(BGEU, func(c *CPU) bool { return c.A >= c.B })
	branch(BGEF, func(c *CPU) bool { return c.F >= c.G })
}
