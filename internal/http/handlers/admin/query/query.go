// Package query разбирает параметры пагинации и фильтров админских списков.
package query

import (
	"net/http"
	"strconv"
)

// Int возвращает целочисленный параметр запроса name. Отсутствующее
// или нечисловое значение даёт 0, границы проверяет сервис.
func Int(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

// Page возвращает параметры page и limit.
func Page(r *http.Request) (page, limit int) {
	return Int(r, "page"), Int(r, "limit")
}
