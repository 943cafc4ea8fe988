package sampler

import "github.com/cwbudde/algo-sampler/pcm"

// bufferStore keeps a pad's loaded buffer and the buffer actually played.
// active is always original or original.Reversed(), never edited on its own.
type bufferStore struct {
	original *pcm.Buffer
	active   *pcm.Buffer
	reverse  bool
}

// load replaces the original buffer. nil clears both buffers.
func (s *bufferStore) load(b *pcm.Buffer) {
	s.original = b
	s.derive()
}

func (s *bufferStore) setReverse(on bool) {
	if s.reverse == on {
		return
	}
	s.reverse = on
	s.derive()
}

func (s *bufferStore) clear() {
	s.original, s.active = nil, nil
}

func (s *bufferStore) derive() {
	switch {
	case s.original == nil:
		s.active = nil
	case s.reverse:
		s.active = s.original.Reversed()
	default:
		s.active = s.original
	}
}
