package tagframe

// keptAppFrames is the number of most recent application frames the
// recycling pass never touches; presentation may still be reading them.
const keptAppFrames = 2

// recycleTags reclaims the slots of frames older than the current
// application frame. It does real work at most once per application frame:
// callers that find another goroutine already recycling return immediately.
func (s *Store) recycleTags() {
	if !s.recycleMu.TryLock() {
		return
	}
	defer s.recycleMu.Unlock()

	current := uint32(FrameUnset)
	if s.frames != nil {
		current = s.frames.PresentFrame()
	}
	if current == s.lastAppFrame && current != FrameUnset {
		return
	}
	s.lastAppFrame = current
	s.recycleBefore(current)
}

// recycleBefore walks backward from appFrame-2 and reclaims every slot that
// still holds the frame being visited. It stops at the first slot holding a
// different frame: that slot was reclaimed already or belongs to a newer
// frame. Frame numbers wrap around zero.
//
// A reclaimed slot is stamped with frame-N, which keeps the slot's position
// and tells later readers the frame is gone. At most N slots are visited so a
// fully reclaimed history cannot keep matching its own stamps.
//
// The caller must hold s.recycleMu.
func (s *Store) recycleBefore(appFrame uint32) {
	s.stats.recycleScans.Add(1)

	depth := uint32(len(s.slots))
	frame := appFrame - keptAppFrames
	for range depth {
		reclaimed := false
		_ = s.writeFrame(frame, func(slot *frameSlot) error {
			if slot.frame != frame {
				return nil
			}
			s.recycleSlot(slot)
			slot.frame = frame - depth
			reclaimed = true
			return nil
		})
		if !reclaimed {
			return
		}
		s.stats.reclaimedSlots.Add(1)
		frame--
	}
}
