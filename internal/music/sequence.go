package music

// MaxSequenceNotes bounds a Sequence so precomputed songs never allocate
// past construction.
const MaxSequenceNotes = 512

// Sequence is a bounded, ordered note list. Appends past capacity are
// dropped silently, matching the engine's clamp-don't-reject policy.
type Sequence struct {
	notes [MaxSequenceNotes]NoteData
	size  int
}

func (s *Sequence) Append(n NoteData) {
	if s.size < MaxSequenceNotes {
		s.notes[s.size] = n
		s.size++
	}
}

func (s *Sequence) Len() int      { return s.size }
func (s *Sequence) Cap() int      { return MaxSequenceNotes }
func (s *Sequence) Empty() bool   { return s.size == 0 }
func (s *Sequence) Clear()        { s.size = 0 }
func (s *Sequence) At(i int) NoteData { return s.notes[i] }

// Notes returns the live slice of appended notes.
func (s *Sequence) Notes() []NoteData { return s.notes[:s.size] }

// TotalDuration sums the durations of all notes and rests, in seconds.
func (s *Sequence) TotalDuration() float64 {
	total := 0.0
	for i := 0; i < s.size; i++ {
		total += s.notes[i].Duration
	}
	return total
}
