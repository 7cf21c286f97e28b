package charge

// ShotLedger spends one charge per shotsPerCharge shots. The first shot of
// a cycle binds an available charge; the last shot of the cycle consumes it.
type ShotLedger struct {
	ledger         *Ledger
	shotsPerCharge int

	bound     int
	hasBound  bool
	shotCount int
}

// NewShotLedger wraps l. shotsPerCharge below 1 is treated as 1.
func NewShotLedger(l *Ledger, shotsPerCharge int) *ShotLedger {
	if shotsPerCharge < 1 {
		shotsPerCharge = 1
	}
	return &ShotLedger{ledger: l, shotsPerCharge: shotsPerCharge}
}

// Shoot records one shot. It returns false when no charge can back it.
func (s *ShotLedger) Shoot() bool {
	if s.hasBound && !s.boundStillAvailable() {
		s.unbind()
	}
	if !s.hasBound {
		id, ok := s.ledger.FirstAvailable()
		if !ok {
			return false
		}
		s.bound = id
		s.hasBound = true
		s.shotCount = 0
	}

	s.shotCount++
	if s.shotCount >= s.shotsPerCharge {
		s.ledger.ConsumeID(s.bound)
		s.unbind()
	}
	return true
}

// CanShoot reports whether Shoot would succeed.
func (s *ShotLedger) CanShoot() bool {
	if s.hasBound && s.boundStillAvailable() {
		return true
	}
	_, ok := s.ledger.FirstAvailable()
	return ok
}

func (s *ShotLedger) boundStillAvailable() bool {
	for _, c := range s.ledger.charges {
		if c.ID == s.bound {
			return c.Available
		}
	}
	return false
}

func (s *ShotLedger) unbind() {
	s.hasBound = false
	s.shotCount = 0
}

// ShotsRemaining returns shots left before the bound charge is spent, or a
// full cycle when nothing is bound.
func (s *ShotLedger) ShotsRemaining() int {
	if !s.hasBound {
		return s.shotsPerCharge
	}
	return s.shotsPerCharge - s.shotCount
}

// ShotsPerCharge returns the cycle length.
func (s *ShotLedger) ShotsPerCharge() int {
	return s.shotsPerCharge
}

// Ledger returns the underlying pool.
func (s *ShotLedger) Ledger() *Ledger {
	return s.ledger
}

// Reset clears the shot counter and restores the pool.
func (s *ShotLedger) Reset() {
	s.unbind()
	s.ledger.Reset()
}
