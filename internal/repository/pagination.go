package repository

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func pageBounds(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize, (page - 1) * pageSize
}
