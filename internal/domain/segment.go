package domain

// SamePowerFunc decides whether two yearly records share the same power
// signature and may therefore belong to the same segment.
type SamePowerFunc func(a, b PowerRecord) bool

// SamePartyCoalition compares party and coalition only. Used by the timeline.
func SamePartyCoalition(a, b PowerRecord) bool {
	return equalInt64(a.PartyID(), b.PartyID()) &&
		equalString(a.Coalition, b.Coalition)
}

// SamePartyCoalitionLeader also requires the same leader name. Used by the
// country summary.
func SamePartyCoalitionLeader(a, b PowerRecord) bool {
	return SamePartyCoalition(a, b) && equalString(a.LeaderName, b.LeaderName)
}

// Compress merges consecutive years with an equal power signature into
// segments. records must be sorted by ascending year without duplicates; gaps
// are allowed and always end a segment. Each candidate year is compared with
// the first record of the running segment, and that first record supplies the
// segment's descriptive fields.
func Compress(records []PowerRecord, same SamePowerFunc) []Segment {
	segments := make([]Segment, 0)
	if len(records) == 0 {
		return segments
	}

	rep := records[0]
	end := rep.Year
	for _, rec := range records[1:] {
		if rec.Year == end+1 && same(rep, rec) {
			end = rec.Year
			continue
		}
		segments = append(segments, newSegment(rep, end))
		rep = rec
		end = rec.Year
	}
	segments = append(segments, newSegment(rep, end))

	return segments
}

// Expand turns segments back into one record per covered year, each year
// inheriting its segment's fields.
func Expand(segments []Segment, iso3 string) []PowerRecord {
	var out []PowerRecord
	for _, s := range segments {
		for y := s.StartYear; y <= s.EndYear; y++ {
			out = append(out, PowerRecord{
				Year:        y,
				CountryISO3: iso3,
				LeaderName:  s.LeaderName,
				Party:       s.Party,
				Coalition:   s.Coalition,
				Confidence:  s.Confidence,
				SourceID:    s.SourceID,
			})
		}
	}
	return out
}

func newSegment(rep PowerRecord, end int) Segment {
	return Segment{
		StartYear:  rep.Year,
		EndYear:    end,
		LeaderName: rep.LeaderName,
		Party:      rep.Party,
		Coalition:  rep.Coalition,
		Confidence: rep.Confidence,
		SourceID:   rep.SourceID,
	}
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalInt64(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
