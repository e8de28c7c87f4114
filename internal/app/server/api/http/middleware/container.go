// Package middleware собирает цепочки huma middleware для групп обработчиков.
package middleware

import "github.com/danielgtaylor/huma/v2"

type Container struct {
	items huma.Middlewares
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Add(mw ...func(huma.Context, func(huma.Context))) {
	c.items = append(c.items, mw...)
}

// GetAllAndClear отдает накопленную цепочку и очищает контейнер для следующего обработчика
func (c *Container) GetAllAndClear() huma.Middlewares {
	out := c.items
	c.items = nil
	if out == nil {
		out = huma.Middlewares{}
	}
	return out
}
