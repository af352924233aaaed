package service

import "time"

// idClock выдает уникальные возрастающие id на основе времени создания
type idClock struct {
	last int64
}

func (c *idClock) next(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= c.last {
		id = c.last + 1
	}
	c.last = id
	return id
}

// observe учитывает id, загруженные из хранилища
func (c *idClock) observe(id int64) {
	if id > c.last {
		c.last = id
	}
}
