package utils

// Listing endpoints page workflows, approvals and notifications with the
// same defaults.
const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// GetPaginationParams normalizes optional offset/limit query values. Nil or
// negative offsets start at zero; nil or non-positive limits fall back to the
// default page size, and the limit is capped at the maximum.
func GetPaginationParams(offset *int, limit *int) (int, int) {
	o := 0
	if offset != nil && *offset >= 0 {
		o = *offset
	}

	l := defaultPageSize
	if limit != nil && *limit > 0 {
		l = min(*limit, maxPageSize)
	}

	return o, l
}
