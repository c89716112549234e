package cpu

import "vm32/trap"

// deliverTrap runs the trap/interrupt engine described in spec
// section 4.3: a fault in supervisor mode with interrupts disabled is
// fatal; a fault in user mode transfers to supervisor; otherwise the
// engine pushes PC and the trap code onto the (now-supervisor) stack
// and redirects to the vector.
//
// faultPC is the address of the instruction that raised c.Trap — not
// c.PC, which by the time this runs already points past it. Saving
// faultPC is what makes a page fault on a bulk op (or any op)
// restartable: RTI resumes at the faulting instruction, not the next
// one.
func (c *CPU) deliverTrap(faultPC uint32) {
	if !c.User && !c.IEna {
		c.fatalMsg("fault in supervisor mode with interrupts disabled")
		return
	}
	c.deliverInterrupt(faultPC)
}

// deliverInterrupt does the mode transfer and context push without
// the fatal check: it is reached directly (bypassing deliverTrap) by
// tick-raised interrupts and by RTI re-delivering a pending one, both
// of which only run when interrupts were just enabled and can never
// be the "exception inside a disabled handler" case deliverTrap
// guards against.
func (c *CPU) deliverInterrupt(faultPC uint32) {
	if c.User {
		c.USP = c.SP
		c.User = false
		c.MMU.SwitchMode(false)
		c.SP = c.SSP
		c.Trap |= trap.USER
	}
	c.IEna = false

	if !c.push8(uint64(faultPC), 4) {
		c.fatalMsg("kernel stack fault saving PC")
		return
	}
	if !c.push8(uint64(c.Trap), 4) {
		c.fatalMsg("kernel stack fault saving trap code")
		return
	}
	c.PC = c.IVec
}

// tick is the device-poll point: console input and the coarse timer
// each either deliver an immediate trap (interrupts enabled) or set a
// bit in IPend (disabled), per spec section 4.4.
func (c *CPU) tick() {
	if ch, ok := c.Console.Poll(); ok {
		if ch == '`' {
			c.escaped = true
			if c.Log != nil {
				c.Log.Printf("ungraceful exit, cycle=%d", c.Cycle)
			}
			return
		}
		c.KBChar = int32(ch)
		c.raise(trap.FKEYBD)
	}
	if c.Timeout != 0 {
		c.Timer++
		if c.Timer >= c.Timeout {
			c.Timer = 0
			c.raise(trap.FTIMER)
		}
	}
}

// raise either delivers code immediately (interrupts enabled) or
// records it in IPend for the next RTI/STI to pick up.
func (c *CPU) raise(code trap.Code) {
	if c.IEna {
		c.Trap = code
		c.deliverInterrupt(c.PC)
		c.Trap = 0 // delivered in full already; don't let Step redeliver it
		return
	}
	c.IPend |= code
}

// deliverPending picks the highest-priority bit in IPend (lowest set
// bit wins, per spec section 4.3) and delivers it.
func (c *CPU) deliverPending() {
	bit := trap.Code(uint32(c.IPend) & -uint32(c.IPend))
	c.IPend &^= bit
	c.Trap = bit
	c.deliverInterrupt(c.PC)
	c.Trap = 0
}

func (c *CPU) fatalMsg(reason string) {
	c.halted = true
	if c.Log != nil {
		c.Log.Printf(
			"processor halted! cycle=%d pc=%#08x inst=%#08x sp=%#08x a=%d b=%d c=%d trap=%s (%s)",
			c.Cycle, c.PC, c.LastInst, c.SP, int32(c.A), int32(c.B), int32(c.C), c.Trap, reason,
		)
	}
}
