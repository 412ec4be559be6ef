package cookies

// chromeEpochOffsetSeconds is the number of seconds between the Windows NT epoch
// (1601-01-01 00:00:00 UTC) and the Unix epoch (1970-01-01 00:00:00 UTC).
const chromeEpochOffsetSeconds int64 = 11_644_473_600

// chromeToUnix converts a Chrome timestamp (microseconds since 1601-01-01)
// to a Unix timestamp (seconds since 1970-01-01).
func chromeToUnix(chromeUSec int64) int64 {
	return (chromeUSec / 1_000_000) - chromeEpochOffsetSeconds
}

// unixToChrome is the inverse of chromeToUnix.
func unixToChrome(unixSec int64) int64 {
	return (unixSec + chromeEpochOffsetSeconds) * 1_000_000
}

// ConvertExpiry translates an expiry value between family units. Zero means
// a session cookie in both families and is kept as zero.
func ConvertExpiry(v int64, from, to Family) int64 {
	if v == 0 || from == to {
		return v
	}
	switch {
	case from == FamilyChromium && to == FamilyGecko:
		return chromeToUnix(v)
	case from == FamilyGecko && to == FamilyChromium:
		return unixToChrome(v)
	}
	return v
}

// ConvertRows returns rows with expiries translated from one family to
// another. The input is not modified.
func ConvertRows(rows []Row, from, to Family) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = WithExpires(r, ConvertExpiry(r.Base().Expires, from, to))
	}
	return out
}
