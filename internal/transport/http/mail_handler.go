package httptransport

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"zohovault/backend/internal/domain"
	"zohovault/backend/internal/middleware"
	"zohovault/backend/internal/service"
	"zohovault/backend/internal/zoho"
)

// MailHandler 邮件数据端点处理器
//
// 所有端点都挂在 RequireSession 之后，进来的请求一定带已解析会话
type MailHandler struct {
	mail *service.MailService
	log  *zap.Logger
}

// NewMailHandler 创建邮件处理器
func NewMailHandler(mail *service.MailService, log *zap.Logger) *MailHandler {
	return &MailHandler{
		mail: mail,
		log:  log,
	}
}

// Account 返回权威邮件账户
func (h *MailHandler) Account(c *gin.Context) {
	sess := h.session(c)
	if sess == nil {
		return
	}

	account, err := h.mail.ResolveAccount(c.Request.Context(), sess)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	Success(c, account)
}

// Mails 返回收件视图中的邮件列表
func (h *MailHandler) Mails(c *gin.Context) {
	sess := h.session(c)
	if sess == nil {
		return
	}

	messages, err := h.mail.ListMessages(c.Request.Context(), sess)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	Success(c, messages)
}

// Folders 返回账户下的文件夹列表
func (h *MailHandler) Folders(c *gin.Context) {
	sess := h.session(c)
	if sess == nil {
		return
	}

	folders, err := h.mail.ListFolders(c.Request.Context(), sess)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	Success(c, folders)
}

// Attachments 返回全账户的附件元数据分组
func (h *MailHandler) Attachments(c *gin.Context) {
	sess := h.session(c)
	if sess == nil {
		return
	}

	groups, err := h.mail.AggregateAttachments(c.Request.Context(), sess)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	Success(c, groups)
}

// Download 下载全账户附件到本会话的落盘目录
//
// 目录按会话 ID 命名，并行会话互不干扰；
// 目录内部沿用附件原始名，重名覆盖
func (h *MailHandler) Download(c *gin.Context) {
	sess := h.session(c)
	if sess == nil {
		return
	}

	dir, err := h.mail.Files().EnsureDir(sess.ID)
	if err != nil {
		h.log.Error("failed to prepare download directory", zap.Error(err))
		InternalError(c, "附件目录创建失败")
		return
	}

	files, err := h.mail.DownloadAttachments(c.Request.Context(), sess, dir)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	SuccessWithMsg(c, "下载完成", gin.H{
		"dir":   dir,
		"count": len(files),
		"files": files,
	})
}

// session 取出中间件注入的会话
func (h *MailHandler) session(c *gin.Context) *domain.Session {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		Unauthorized(c, MsgAuthRequired)
		return nil
	}
	return sess
}

// serviceError 将业务错误映射为 HTTP 响应
func (h *MailHandler) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoAccountFound):
		NotFound(c, GetErrorMessage(service.ErrNoAccountFound))
	case errors.Is(err, zoho.ErrUnauthorized):
		Unauthorized(c, GetErrorMessage(zoho.ErrUnauthorized))
	default:
		h.log.Error("mail endpoint failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		BadGateway(c, MsgProviderError)
	}
}
