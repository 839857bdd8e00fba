package prompt

// Scripted is a Confirmer for tests: it records every label it is asked
// about and returns a fixed answer.
type Scripted struct {
	Answer bool
	Err    error
	Labels []string
}

// Confirm implements Confirmer.
func (s *Scripted) Confirm(label string) (bool, error) {
	s.Labels = append(s.Labels, label)
	return s.Answer, s.Err
}
