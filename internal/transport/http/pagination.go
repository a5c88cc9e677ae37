package http

import (
	"math"
	"strconv"
	"strings"

	"github.com/Zainify/onlineportal-sub001/internal/app"
	"github.com/gin-gonic/gin"
)

const (
	defaultPerPage = 25
	maxPerPage     = 200
	maxPage        = math.MaxInt32 / maxPerPage
)

type pageMeta struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

func parsePage(c *gin.Context) app.Page {
	page := atoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	per := atoiDefault(c.Query("per_page"), defaultPerPage)
	if per < 1 {
		per = defaultPerPage
	}
	if per > maxPerPage {
		per = maxPerPage
	}
	return app.Page{Number: page, PerPage: per}
}

func buildMeta(total int, p app.Page) pageMeta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + p.PerPage - 1) / p.PerPage
	}
	return pageMeta{
		Page:       p.Number,
		PerPage:    p.PerPage,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    p.Number > 1,
		HasNext:    p.Number < totalPages,
	}
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
