package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studioreel/internal/service"
)

type faqPayload struct {
	QuestionZH string `json:"question_zh"`
	QuestionEN string `json:"question_en"`
	AnswerZH   string `json:"answer_zh"`
	AnswerEN   string `json:"answer_en"`
	OrderIndex int    `json:"order_index"`
	IsActive   bool   `json:"is_active"`
}

func (p faqPayload) toInput() service.FAQInput {
	return service.FAQInput{
		QuestionZH: p.QuestionZH,
		QuestionEN: p.QuestionEN,
		AnswerZH:   p.AnswerZH,
		AnswerEN:   p.AnswerEN,
		OrderIndex: p.OrderIndex,
		IsActive:   p.IsActive,
	}
}

// ListFAQs returns all FAQ entries for admin management.
func (a *API) ListFAQs(c *gin.Context) {
	items, err := a.faqs.List(c.Request.Context(), false)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取常见问题失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CreateFAQ creates a new FAQ entry.
func (a *API) CreateFAQ(c *gin.Context) {
	var payload faqPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.faqs.Create(c.Request.Context(), payload.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFAQQuestionMissing):
			respondError(c, http.StatusBadRequest, "请填写问题内容")
		default:
			respondError(c, http.StatusInternalServerError, "创建常见问题失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "常见问题已创建", "item": item})
}

// UpdateFAQ updates an existing FAQ entry.
func (a *API) UpdateFAQ(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的问题ID")
		return
	}

	var payload faqPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.faqs.Update(c.Request.Context(), id, payload.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFAQNotFound):
			respondError(c, http.StatusNotFound, "常见问题不存在")
		case errors.Is(err, service.ErrFAQQuestionMissing):
			respondError(c, http.StatusBadRequest, "请填写问题内容")
		default:
			respondError(c, http.StatusInternalServerError, "更新常见问题失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "常见问题已更新", "item": item})
}

// DeleteFAQ removes a FAQ entry.
func (a *API) DeleteFAQ(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的问题ID")
		return
	}

	if err := a.faqs.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrFAQNotFound):
			respondError(c, http.StatusNotFound, "常见问题不存在")
		default:
			respondError(c, http.StatusInternalServerError, "删除常见问题失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "常见问题已删除"})
}

// ReorderFAQ moves a FAQ entry to a new display position.
func (a *API) ReorderFAQ(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的问题ID")
		return
	}

	var payload reorderPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.faqs.Reorder(c.Request.Context(), id, payload.OrderIndex)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFAQNotFound):
			respondError(c, http.StatusNotFound, "常见问题不存在")
		default:
			respondError(c, http.StatusInternalServerError, "调整问题顺序失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "顺序已调整", "item": item})
}
