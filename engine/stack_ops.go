package engine

// GetStackframe returns the frame containing addr, searching from the top
// of the stack down, or nil if addr falls outside every tracked frame.
func (s *Swimmer) GetStackframe(addr uint64) *Stackframe {
	for i := len(s.Frames) - 1; i >= 0; i-- {
		if s.Frames[i].Contains(addr) {
			return s.Frames[i]
		}
	}
	return nil
}

// GetStackBufferLength estimates how many bytes starting at addr belong to
// the same logical buffer, using the enclosing frame's access gap as a
// conservative underestimate (§4.4) when addr isn't a frame itself.
func (s *Swimmer) GetStackBufferLength(addr uint64) uint64 {
	frame := s.GetStackframe(addr)
	if frame == nil {
		return 0
	}
	// accesses are recorded as "-displacement" from rbp, i.e. distance
	// below the frame's top (frame.Addr()+frame.Size()).
	// Bytes above addr have smaller offsets; the buffer ends at the nearest
	// recorded access strictly below off.
	off := frame.Addr() + frame.Size() - addr
	lo, _ := frame.AccessGap(off - 1)
	return off - lo
}
