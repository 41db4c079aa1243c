package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
	"github.com/GoSim-25-26J-441/erp-backend/internal/pipeline"
	"github.com/GoSim-25-26J-441/erp-backend/internal/projects"
)

func (h *Handler) list(c *gin.Context) {
	var lq listQuery
	if err := c.ShouldBindQuery(&lq); err != nil {
		_ = c.Error(&apperr.BindError{Err: err})
		return
	}

	q := projects.GetProjectsQuery{
		PageNumber: lq.PageNumber,
		PageSize:   lq.PageSize,
		CustomerID: lq.CustomerID,
		SearchTerm: lq.SearchTerm,
	}.Normalize()
	if lq.Status != "" {
		status, err := domain.ParseProjectStatus(lq.Status)
		if err != nil {
			_ = c.Error(apperr.NewValidationError(apperr.Failure{Property: "Status", Message: "Status is not valid."}))
			return
		}
		q.Status = &status
	}

	page, err := pipeline.Send[apperr.PaginatedList[projects.ProjectDto]](c.Request.Context(), h.mediator, q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	detail, err := pipeline.Send[projects.ProjectDetailDto](c.Request.Context(), h.mediator, projects.GetProjectDetailQuery{ID: id})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) create(c *gin.Context) {
	var cmd projects.CreateProjectCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		_ = c.Error(&apperr.BindError{Err: err})
		return
	}

	id, err := pipeline.Send[int](c.Request.Context(), h.mediator, cmd)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, id)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var cmd projects.UpdateProjectCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		_ = c.Error(&apperr.BindError{Err: err})
		return
	}
	if cmd.ID != id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Route id does not match body id"})
		return
	}

	if _, err := pipeline.Send[struct{}](c.Request.Context(), h.mediator, cmd); err != nil {
		_ = c.Error(err)
		return
	}

	h.notify(c.Request.Context(), id, fmt.Sprintf("Project %s was updated", cmd.Name))
	c.Status(http.StatusNoContent)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if _, err := pipeline.Send[struct{}](c.Request.Context(), h.mediator, projects.DeleteProjectCommand{ID: id}); err != nil {
		_ = c.Error(err)
		return
	}

	h.notify(c.Request.Context(), id, fmt.Sprintf("Project %d was deleted", id))
	c.Status(http.StatusNoContent)
}

func (h *Handler) notify(ctx context.Context, projectID int, message string) {
	if h.notifier == nil {
		return
	}
	group := "project_" + strconv.Itoa(projectID)
	if err := h.notifier.SendNotificationToGroup(ctx, group, message, "info"); err != nil {
		h.logger.Warn("project notification failed", zap.String("group", group), zap.Error(err))
	}
}

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
