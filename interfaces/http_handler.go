package interfaces

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"interview-platform/domain"
	"interview-platform/usecase"
)

type HTTPHandler struct {
	Orchestrator   *usecase.Orchestrator
	Lifecycle      *usecase.Lifecycle
	Onboarding     *usecase.Onboarding
	Pipeline       *usecase.Pipeline
	MaxUploadBytes int64
}

// NewHTTPHandler registers every route on router.
func NewHTTPHandler(router *gin.Engine, h *HTTPHandler) {
	router.GET("/health", h.Health)

	router.POST("/interview", h.CreateInterview)
	router.GET("/interview", h.GetInterview)
	router.GET("/interview/start/:id", h.StartInterview)
	router.GET("/interview/finish/:id", h.FinishInterview)
	router.POST("/interview/abort/:id", h.AbortInterview)
	router.GET("/interview/result/:id", h.GetResult)
	router.POST("/interview/reprocess/:id", h.ReprocessInterview)

	router.POST("/question/new", h.NewQuestion)

	router.POST("/position", h.CreatePosition)
	router.GET("/position/:id", h.GetPosition)
	router.POST("/operations/refine-jd", h.RefineJobDescription)
	router.POST("/operations/refine-resume", h.RefineResume)

	router.GET("/candidate", h.ListCandidates)
	router.POST("/candidate/resume", h.UploadResume)
	router.POST("/candidate/bulk-invite", h.BulkInvite)

	router.GET("/queues/process-result/jobs", h.ListScoringJobs)
}

func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type createInterviewRequest struct {
	User           usecase.NewCandidate `json:"user" binding:"required"`
	PositionID     string               `json:"position_id" binding:"required"`
	OrganizationID int                  `json:"organization_id"`
}

// CreateInterview registers the candidate if needed and assigns an interview.
func (h *HTTPHandler) CreateInterview(c *gin.Context) {
	var req createInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	details, err := h.Onboarding.AssignInterview(c.Request.Context(), req.User, req.PositionID, req.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, "Interview created", details)
}

func (h *HTTPHandler) GetInterview(c *gin.Context) {
	details, err := h.Onboarding.GetInterview(c.Request.Context(), c.Query("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, "Interview fetched", details)
}

func (h *HTTPHandler) StartInterview(c *gin.Context) {
	interview, err := h.Lifecycle.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, "Interview started", interview)
}

// FinishInterview completes the interview and queues it for scoring.
func (h *HTTPHandler) FinishInterview(c *gin.Context) {
	jobID, err := h.Lifecycle.Finish(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, "Interview finished", gin.H{"jobId": jobID})
}

type abortRequest struct {
	Reason string `json:"reason"`
}

func (h *HTTPHandler) AbortInterview(c *gin.Context) {
	var req abortRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}
	if req.Reason == "" {
		req.Reason = "candidate left"
	}

	if err := h.Lifecycle.Abort(c.Request.Context(), c.Param("id"), req.Reason); err != nil {
		respondError(c, err)
		return
	}
	respond(c, "Interview aborted", nil)
}

func (h *HTTPHandler) GetResult(c *gin.Context) {
	details, err := h.Onboarding.GetInterview(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, "Result fetched", gin.H{
		"result_status": details.Interview.ResultStatus,
		"result":        details.Interview.Result,
		"jobId":         details.Interview.ScoringJobID,
	})
}

func (h *HTTPHandler) ReprocessInterview(c *gin.Context) {
	jobID, err := h.Lifecycle.Reprocess(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, "Interview queued for scoring", gin.H{"jobId": jobID})
}

type newQuestionRequest struct {
	InterviewID string  `json:"interview_id" binding:"required"`
	Question    *string `json:"question"`
	Answer      *string `json:"answer"`
}

// NewQuestion runs one round of the interview. Without an answer it returns
// the pending question.
func (h *HTTPHandler) NewQuestion(c *gin.Context) {
	var req newQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.Orchestrator.Advance(c.Request.Context(), req.InterviewID, req.Question, req.Answer)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, "Question generated", res)
}

func (h *HTTPHandler) CreatePosition(c *gin.Context) {
	var req usecase.NewPosition
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	position, err := h.Onboarding.CreatePosition(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, "Position created", position)
}

func (h *HTTPHandler) GetPosition(c *gin.Context) {
	position, err := h.Onboarding.GetPosition(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, "Position fetched", position)
}

type refineJDRequest struct {
	PositionID     string `json:"position_id" binding:"required"`
	JobDescription string `json:"job_description"`
}

func (h *HTTPHandler) RefineJobDescription(c *gin.Context) {
	var req refineJDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	object, err := h.Onboarding.RefineJobDescription(c.Request.Context(), req.PositionID, req.JobDescription)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, "Job description refined", gin.H{"jd_object": object})
}

type refineResumeRequest struct {
	Resume      string `json:"resume"`
	CandidateID string `json:"candidate_id"`
}

// RefineResume structures resume text, storing it when candidate_id is set.
func (h *HTTPHandler) RefineResume(c *gin.Context) {
	var req refineResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	object, err := h.Onboarding.RefineResume(c.Request.Context(), req.CandidateID, req.Resume)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, "Resume refined", gin.H{"resume_object": object})
}

// ListCandidates lists assigned interviews, optionally filtered by
// position_id and status.
func (h *HTTPHandler) ListCandidates(c *gin.Context) {
	filter := domain.InterviewFilter{
		PositionID: c.Query("position_id"),
		Status:     domain.InterviewStatus(c.Query("status")),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, &domain.ValidationError{Field: "limit", Message: "must be a number"})
			return
		}
		filter.Limit = limit
	}

	interviews, err := h.Onboarding.ListInterviews(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, "Interviews fetched", interviews)
}

// UploadResume accepts a multipart resume (pdf, docx, txt or md) for a candidate.
func (h *HTTPHandler) UploadResume(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, &domain.ValidationError{Field: "file", Message: "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, &domain.ValidationError{Field: "file", Message: "failed to open file"})
		return
	}
	defer file.Close()

	upload, err := h.Onboarding.UploadResume(c.Request.Context(), strings.TrimSpace(c.PostForm("candidate_id")), file, header.Filename)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, "Resume uploaded", upload)
}

type bulkInviteRequest struct {
	PositionID     string                 `json:"positionId" binding:"required"`
	OrganizationID int                    `json:"organization_id"`
	Candidates     []usecase.NewCandidate `json:"candidates" binding:"required,min=1"`
}

func (h *HTTPHandler) BulkInvite(c *gin.Context) {
	var req bulkInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	invitations, err := h.Onboarding.BulkInvite(c.Request.Context(), req.PositionID, req.OrganizationID, req.Candidates)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, "Candidates invited", invitations)
}

func (h *HTTPHandler) ListScoringJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	jobs, err := h.Pipeline.Jobs(c.Request.Context(), domain.JobStatus(c.Query("status")), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, "Jobs fetched", gin.H{"queue": domain.ScoringQueue, "jobs": jobs})
}
