package wizard

import (
	"go.uber.org/zap"

	"willvault/api/internal/validate"
	"willvault/api/internal/will"
)

// Advance validates the current step and moves forward one step when it
// passes. On failure the step is unchanged and the section's errors are
// returned and kept in the error map.
func (s *Store) Advance() (bool, validate.Errors) {
	s.FlushFields()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return false, nil
	}
	section, errs := validate.Step(s.step, s.doc)
	if section != "" {
		s.recordLocked(section, errs)
	}
	if len(errs) > 0 {
		s.logger.Debug("advance blocked",
			zap.String("session_id", s.sessionID),
			zap.Int("step", s.step),
			zap.Int("errors", len(errs)),
		)
		s.touchLocked()
		return false, errs
	}
	if s.step < LastStep {
		s.step++
	}
	s.commitLocked()
	return true, nil
}

// Retreat moves back one step without validation.
func (s *Store) Retreat() {
	s.mutate(func() {
		if s.step > FirstStep {
			s.step--
		}
	})
}

// JumpToStep moves to step n when it is within range. Out of range targets
// are ignored without touching state or the error map.
func (s *Store) JumpToStep(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	if n < FirstStep || n > LastStep {
		s.logger.Debug("jump ignored, step out of range", zap.String("session_id", s.sessionID), zap.Int("target", n))
		return
	}
	s.step = n
	s.commitLocked()
}

func (s *Store) recordLocked(section string, errs validate.Errors) {
	if len(errs) == 0 {
		delete(s.errors, section)
		return
	}
	cp := make(validate.Errors, len(errs))
	for k, v := range errs {
		cp[k] = v
	}
	s.errors[section] = cp
}

func (s *Store) validateSection(section string, errs validate.Errors) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordLocked(section, errs)
	return len(errs) == 0
}

func (s *Store) ValidatePersonalInfo() bool {
	doc := s.Document()
	return s.validateSection(validate.SectionPersonalInfo, validate.PersonalInfo(doc.PersonalInfo))
}

func (s *Store) ValidateDigitalAssets() bool {
	doc := s.Document()
	return s.validateSection(validate.SectionDigitalAssets, validate.DigitalAssets(doc.DigitalAssets))
}

func (s *Store) ValidateCryptoSetup() bool {
	doc := s.Document()
	return s.validateSection(validate.SectionCryptoSetup, validate.CryptoSetup(doc.CryptoSetup))
}

func (s *Store) ValidateBeneficiaries() bool {
	doc := s.Document()
	return s.validateSection(validate.SectionBeneficiaries, validate.Beneficiaries(doc.Beneficiaries))
}

// SetError records one field error for a section.
func (s *Store) SetError(section, field, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errors[section] == nil {
		s.errors[section] = validate.Errors{}
	}
	s.errors[section][field] = message
}

func (s *Store) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = map[string]validate.Errors{}
}

func (s *Store) Errors() map[string]validate.Errors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneErrors(s.errors)
}

// StepValid runs the rule for step n without recording errors.
func (s *Store) StepValid(n int) bool {
	doc := s.Document()
	_, errs := validate.Step(n, doc)
	return len(errs) == 0
}

// CanProceedToStep reports whether every step before n is complete.
func (s *Store) CanProceedToStep(n int) bool {
	if n < FirstStep || n > LastStep {
		return false
	}
	doc := s.Document()
	for step := FirstStep; step < n; step++ {
		if _, errs := validate.Step(step, doc); len(errs) > 0 {
			return false
		}
	}
	return true
}

func (s *Store) CompletionPercentage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return completion(s.doc)
}

// completion counts four equally weighted parts: personal info present,
// a category selected, crypto covered (set up, or no crypto selected) and a
// named primary beneficiary.
func completion(doc will.Document) int {
	done := 0
	if doc.PersonalInfo != nil && doc.PersonalInfo.FullName != "" && doc.PersonalInfo.State != "" {
		done++
	}
	if doc.DigitalAssets != nil && len(doc.DigitalAssets.SelectedCategories) > 0 {
		done++
	}
	if doc.CryptoSetup != nil || !doc.DigitalAssets.SelectsCrypto() {
		done++
	}
	if doc.Beneficiaries != nil && doc.Beneficiaries.Primary.Name != "" {
		done++
	}
	return done * 25
}
