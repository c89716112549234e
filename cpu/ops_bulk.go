package cpu

// Bulk memory operations: copy, compare, byte-search and fill. Each
// walks C bytes of the operand(s) at A (and B), clipping every inner
// step to the smaller of the remaining count and the distance to the
// next page boundary of every operand touched, exactly as the
// reference's memcpy/memcmp/memchr/memset chunking does. A fault
// partway through leaves A, B and C describing the unconsumed suffix,
// so RTI resumes the same MCPY/MCMP/MCHR/MSET instruction and it picks
// up where the fault left off.

func clip(addr, remaining uint32) uint32 {
	room := mmuPageSize - (addr & (mmuPageSize - 1))
	if room > remaining {
		return remaining
	}
	return room
}

const mmuPageSize = 4096

func init() {
	defOp(MCPY, func(c *CPU, imm int32) {
		for c.C > 0 {
			srcOff, code, vadr, ok := c.MMU.ResolveRead(c.User, c.B)
			if !ok {
				c.Trap, c.Vadr = code, vadr
				return
			}
			dstOff, code, vadr, ok := c.MMU.ResolveWrite(c.User, c.A)
			if !ok {
				c.Trap, c.Vadr = code, vadr
				return
			}
			u := clip(c.A, c.C)
			if w := clip(c.B, u); w < u {
				u = w
			}
			copy(c.MMU.Memory[dstOff:dstOff+u], c.MMU.Memory[srcOff:srcOff+u])
			c.A += u
			c.B += u
			c.C -= u
		}
	})

	defOp(MCMP, func(c *CPU, imm int32) {
		for {
			if c.C == 0 {
				c.A = 0
				return
			}
			bOff, code, vadr, ok := c.MMU.ResolveRead(c.User, c.B)
			if !ok {
				c.Trap, c.Vadr = code, vadr
				return
			}
			aOff, code, vadr, ok := c.MMU.ResolveRead(c.User, c.A)
			if !ok {
				c.Trap, c.Vadr = code, vadr
				return
			}
			u := clip(c.A, c.C)
			if w := clip(c.B, u); w < u {
				u = w
			}
			aBuf := c.MMU.Memory[aOff : aOff+u]
			bBuf := c.MMU.Memory[bOff : bOff+u]
			diffAt := -1
			for i := uint32(0); i < u; i++ {
				if aBuf[i] != bBuf[i] {
					diffAt = int(i)
					break
				}
			}
			if diffAt >= 0 {
				c.A = uint32(int32(aBuf[diffAt]) - int32(bBuf[diffAt]))
				c.B += c.C
				c.C = 0
				return
			}
			c.A += u
			c.B += u
			c.C -= u
		}
	})

	defOp(MCHR, func(c *CPU, imm int32) {
		needle := byte(c.B)
		for {
			if c.C == 0 {
				c.A = 0
				return
			}
			off, code, vadr, ok := c.MMU.ResolveRead(c.User, c.A)
			if !ok {
				c.Trap, c.Vadr = code, vadr
				return
			}
			u := clip(c.A, c.C)
			buf := c.MMU.Memory[off : off+u]
			found := -1
			for i := uint32(0); i < u; i++ {
				if buf[i] == needle {
					found = int(i)
					break
				}
			}
			if found >= 0 {
				c.A += uint32(found)
				c.C = 0
				return
			}
			c.A += u
			c.C -= u
		}
	})

	defOp(MSET, func(c *CPU, imm int32) {
		fill := byte(c.B)
		for c.C > 0 {
			off, code, vadr, ok := c.MMU.ResolveWrite(c.User, c.A)
			if !ok {
				c.Trap, c.Vadr = code, vadr
				return
			}
			u := clip(c.A, c.C)
			buf := c.MMU.Memory[off : off+u]
			for i := range buf {
				buf[i] = fill
			}
			c.A += u
			c.C -= u
		}
	})
}
