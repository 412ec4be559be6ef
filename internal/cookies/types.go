package cookies

// Family identifies the cookie schema of a browser engine.
type Family int

const (
	// FamilyUnknown means the schema could not be detected.
	FamilyUnknown Family = iota
	// FamilyChromium is the cookies table with expires_utc in microseconds
	// since 1601-01-01 UTC.
	FamilyChromium
	// FamilyGecko is the moz_cookies table with expiry in Unix seconds.
	FamilyGecko
)

func (f Family) String() string {
	switch f {
	case FamilyChromium:
		return "chromium"
	case FamilyGecko:
		return "gecko"
	default:
		return "unknown"
	}
}

// Cookie holds the columns shared by every cookie row.
// Value is SENSITIVE and must never be logged.
type Cookie struct {
	Host string
	Name string
	// Value is the cookie value. SENSITIVE, never log.
	Value string
	Path  string
	// Expires is in the native unit of the source family.
	Expires  int64
	Secure   bool
	HTTPOnly bool
}

// Row is a cookie row read from or written to a database. It is either a
// PlainCookie or an EncryptedCookie.
type Row interface {
	Base() Cookie
	isRow()
}

// PlainCookie is a row from a schema without encrypted_value.
type PlainCookie struct {
	Cookie
}

// EncryptedCookie is a row from a schema that carries encrypted_value. The
// blob is opaque OS-protected data and is restored byte for byte.
type EncryptedCookie struct {
	Cookie
	EncryptedValue []byte
}

func (c PlainCookie) Base() Cookie     { return c.Cookie }
func (c EncryptedCookie) Base() Cookie { return c.Cookie }

func (PlainCookie) isRow()     {}
func (EncryptedCookie) isRow() {}

// WithExpires returns a copy of r with its expiry replaced.
func WithExpires(r Row, expires int64) Row {
	switch c := r.(type) {
	case PlainCookie:
		c.Expires = expires
		return c
	case EncryptedCookie:
		c.Expires = expires
		c.EncryptedValue = append([]byte(nil), c.EncryptedValue...)
		return c
	}
	return r
}

// HasEncrypted reports whether any row carries an encrypted value.
func HasEncrypted(rows []Row) bool {
	for _, r := range rows {
		if _, ok := r.(EncryptedCookie); ok {
			return true
		}
	}
	return false
}
