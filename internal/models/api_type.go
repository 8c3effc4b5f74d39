package models

type APIType string

const (
	APITypeAddressGenerator APIType = "address_generator"
	APITypeEmail2Name       APIType = "email2name"
)

// AllAPITypes returns the closed set of rate-limited API categories in a
// stable order. Adding a new category means adding it here and nowhere else.
func AllAPITypes() []APIType {
	return []APIType{
		APITypeAddressGenerator,
		APITypeEmail2Name,
	}
}

func (t APIType) Valid() bool {
	switch t {
	case APITypeAddressGenerator, APITypeEmail2Name:
		return true
	}
	return false
}

func (t APIType) String() string {
	return string(t)
}
