package simulation

// Stats counts the outcome of a set of rays. Merging is element-wise
// addition, so any split of the rays merges to the same totals.
type Stats struct {
	Rays        int64 `json:"rays"`
	HitAny      int64 `json:"hitAny"`      // Rays whose path touched any geometry
	HitCritical int64 `json:"hitCritical"` // Rays whose path touched critical geometry
}

// Merge returns the element-wise sum of two stats
func (s Stats) Merge(other Stats) Stats {
	return Stats{
		Rays:        s.Rays + other.Rays,
		HitAny:      s.HitAny + other.HitAny,
		HitCritical: s.HitCritical + other.HitCritical,
	}
}

// Record adds the outcome of one ray
func (s *Stats) Record(hitAny, hitCritical bool) {
	s.Rays++
	if hitAny {
		s.HitAny++
	}
	if hitCritical {
		s.HitCritical++
	}
}

// HitAnyPercent returns the percentage of rays touching any geometry
func (s Stats) HitAnyPercent() float64 {
	if s.Rays == 0 {
		return 0
	}
	return float64(s.HitAny) / float64(s.Rays) * 100
}

// HitCriticalPercent returns the percentage of rays touching critical geometry
func (s Stats) HitCriticalPercent() float64 {
	if s.Rays == 0 {
		return 0
	}
	return float64(s.HitCritical) / float64(s.Rays) * 100
}
