package cpu

import "vm32/trap"

// priv reports whether the processor is in supervisor mode, raising
// FPRIV and refusing the opcode otherwise. Every system-control and
// console opcode but TRAP itself routes through it.
func (c *CPU) priv() bool {
	if c.User {
		c.Trap = trap.FPRIV
		return false
	}
	return true
}

func init() {
	defOp(BIN, func(c *CPU, imm int32) {
		if !c.priv() {
			return
		}
		c.A = uint32(c.KBChar)
		c.KBChar = -1
	})
	defOp(BOUT, func(c *CPU, imm int32) {
		if !c.priv() {
			return
		}
		if c.A == 1 {
			c.Console.Write(byte(c.B))
		}
	})

	defOp(SSP, func(c *CPU, imm int32) {
		if !c.priv() {
			return
		}
		c.SP = c.A
	})

	defOp(CYC, func(c *CPU, imm int32) {
		if !c.priv() {
			return
		}
		c.A = uint32(c.Cycle)
	})
	defOp(MSIZ, func(c *CPU, imm int32) {
		if !c.priv() {
			return
		}
		c.A = uint32(len(c.MMU.Memory))
	})

	defOp(CLI, func(c *CPU, imm int32) {
		if !c.priv() {
			return
		}
		c.A = b2u(c.IEna)
		c.IEna = false
	})
	defOp(STI, func(c *CPU, imm int32) {
		if !c.priv() {
			return
		}
		if c.IPend != 0 {
			c.deliverPending()
			return
		}
		c.IEna = true
	})
	defOp(RTI, func(c *CPU, imm int32) {
		if !c.priv() {
			return
		}
		code, ok := c.pop8(4)
		if !ok {
			c.fatalMsg("RTI kernel stack fault popping trap code")
			return
		}
		pc, ok := c.pop8(4)
		if !ok {
			c.fatalMsg("RTI kernel stack fault popping PC")
			return
		}
		savedTrap := trap.Code(code)
		c.PC = uint32(pc)
		if savedTrap.IsUser() {
			c.SSP = c.SP
			c.SP = c.USP
			c.User = true
			c.MMU.SwitchMode(true)
		}
		c.MMU.Flush()
		if c.IPend != 0 {
			c.deliverPending()
		} else {
			c.IEna = true
		}
	})

	defOp(IVEC, func(c *CPU, imm int32) {
		if !c.priv() {
			return
		}
		c.IVec = c.A
	})
	defOp(PDIR, func(c *CPU, imm int32) {
		if !c.priv() {
			return
		}
		if c.A > uint32(len(c.MMU.Memory)) {
			c.Trap = trap.FMEM
			return
		}
		c.MMU.PDir = c.A &^ (mmuPageSize - 1)
		c.MMU.Flush()
	})
	defOp(SPAG, func(c *CPU, imm int32) {
		if !c.priv() {
			return
		}
		if c.A != 0 && c.MMU.PDir == 0 {
			c.Trap = trap.FMEM
			return
		}
		c.MMU.VMem = c.A != 0
		c.MMU.Flush()
	})
	defOp(TIME, func(c *CPU, imm int32) {
		if !c.priv() {
			return
		}
		if imm != 0 {
			if c.Log != nil {
				c.Log.Printf("timer%d=%d timeout=%d", imm, c.Timer, c.Timeout)
			}
			return
		}
		c.Timeout = c.A
	})

	defOp(LVAD, func(c *CPU, imm int32) {
		if !c.priv() {
			return
		}
		c.A = c.Vadr
	})
	defOp(TRAP, func(c *CPU, imm int32) { c.Trap = trap.FSYS })

	defOp(LUSP, func(c *CPU, imm int32) {
		if !c.priv() {
			return
		}
		c.A = c.USP
	})
	defOp(SUSP, func(c *CPU, imm int32) {
		if !c.priv() {
			return
		}
		c.USP = c.A
	})
}
