package arbor

// InjectMessage queues an input message for a later Update. One queued
// message is consumed per Update, before the tree is walked.
func (s *Scene) InjectMessage(msg InputMessage) {
	s.injectQueue = append(s.injectQueue, msg)
}

// InjectPress queues a left button press at the given screen coordinates.
func (s *Scene) InjectPress(x, y float64) {
	s.InjectMessage(InputMessage{Kind: InputButtonDown, Button: MouseButtonLeft, X: x, Y: y})
}

// InjectMove queues a cursor move to the given screen coordinates. Between
// InjectPress and InjectRelease this drives a drag.
func (s *Scene) InjectMove(x, y float64) {
	s.InjectMessage(InputMessage{Kind: InputMove, X: x, Y: y})
}

// InjectRelease queues a left button release at the given screen coordinates.
func (s *Scene) InjectRelease(x, y float64) {
	s.InjectMessage(InputMessage{Kind: InputButtonUp, Button: MouseButtonLeft, X: x, Y: y})
}

// InjectClick queues a press followed by a release at the same screen
// coordinates. Consumes two frames.
func (s *Scene) InjectClick(x, y float64) {
	s.InjectPress(x, y)
	s.InjectRelease(x, y)
}

// InjectDrag queues a full drag sequence: press at (fromX, fromY),
// linearly interpolated moves over frames-2 intermediate frames, and
// release at (toX, toY). The total sequence consumes `frames` frames.
// Minimum frames is 2 (press + release).
func (s *Scene) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	s.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		s.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	s.InjectRelease(toX, toY)
}

// PendingInjections returns the number of queued messages.
func (s *Scene) PendingInjections() int {
	return len(s.injectQueue)
}

// processInjected pops one message from the inject queue and dispatches it.
// Returns true if a message was consumed.
func (s *Scene) processInjected() bool {
	if len(s.injectQueue) == 0 {
		return false
	}
	msg := s.injectQueue[0]
	copy(s.injectQueue, s.injectQueue[1:])
	s.injectQueue = s.injectQueue[:len(s.injectQueue)-1]
	s.PostMessage(msg)
	return true
}
