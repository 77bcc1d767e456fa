package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"zohovault/backend/internal/domain"
	"zohovault/backend/internal/monitoring"
	"zohovault/backend/internal/session"
	"zohovault/backend/internal/storage/filesystem"
	"zohovault/backend/internal/zoho"
)

var (
	// ErrNoAccountFound 授权用户名下没有任何邮件账户
	ErrNoAccountFound = errors.New("no mail account found for user")
)

// MailProvider 定义邮件业务依赖的提供方操作。
type MailProvider interface {
	ListAccounts(ctx context.Context, accessToken string) ([]domain.MailAccount, error)
	ListMessages(ctx context.Context, accessToken, accountID string, limit int) ([]domain.MessageRef, error)
	ListFolders(ctx context.Context, accessToken, accountID string) ([]domain.Folder, error)
	AttachmentInfo(ctx context.Context, accessToken, accountID, folderID, messageID string) ([]domain.AttachmentRef, error)
	AttachmentContent(ctx context.Context, accessToken, accountID, folderID, messageID, attachmentID string) ([]byte, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// DownloadedFile 单个已落盘附件的描述
type DownloadedFile struct {
	AttachmentID string `json:"attachmentId"`
	MessageID    string `json:"messageId"`
	Name         string `json:"name"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
}

// MailService 封装邮件枚举、附件聚合与下载业务。
type MailService struct {
	provider    MailProvider
	sessions    *session.Manager
	files       *filesystem.Store
	metrics     *monitoring.Metrics
	log         *zap.Logger
	concurrency int
	fetchLimit  int
}

// NewMailService 创建邮件业务服务。
func NewMailService(
	provider MailProvider,
	sessions *session.Manager,
	files *filesystem.Store,
	metrics *monitoring.Metrics,
	log *zap.Logger,
	concurrency int,
) *MailService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &MailService{
		provider:    provider,
		sessions:    sessions,
		files:       files,
		metrics:     metrics,
		log:         log,
		concurrency: concurrency,
		fetchLimit:  100,
	}
}

// Files 返回附件落盘存储
func (s *MailService) Files() *filesystem.Store {
	return s.files
}

// withAuthRetry 以当前访问令牌执行 fn，令牌被拒时刷新一次后整体重试
//
// 刷新成功会把新令牌对回写到会话表。fn 必须可安全重放，
// 重试覆盖整个阶段而不是单个请求，保证结果来自同一令牌视角
func (s *MailService) withAuthRetry(ctx context.Context, sess *domain.Session, fn func(accessToken string) error) error {
	err := fn(sess.AccessToken)
	if !errors.Is(err, zoho.ErrUnauthorized) {
		return err
	}
	if sess.RefreshToken == "" {
		return err
	}

	token, refreshErr := s.provider.Refresh(ctx, sess.RefreshToken)
	if refreshErr != nil {
		s.log.Warn("token refresh failed",
			zap.String("session_id", sess.ID),
			zap.Error(refreshErr),
		)
		return err
	}

	sess.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		sess.RefreshToken = token.RefreshToken
	}
	if updateErr := s.sessions.Update(sess); updateErr != nil {
		return fmt.Errorf("failed to persist refreshed token: %w", updateErr)
	}

	if s.metrics != nil {
		s.metrics.TokenRefreshTotal.Inc()
	}
	s.log.Info("access token refreshed", zap.String("session_id", sess.ID))

	return fn(sess.AccessToken)
}

// ResolveAccount 解析授权用户的权威邮件账户
//
// 每次调用都重新向提供方查询，取列表第一个条目；
// 列表为空返回 ErrNoAccountFound，后续管道不再继续
func (s *MailService) ResolveAccount(ctx context.Context, sess *domain.Session) (*domain.MailAccount, error) {
	var accounts []domain.MailAccount
	err := s.withAuthRetry(ctx, sess, func(accessToken string) error {
		var listErr error
		accounts, listErr = s.provider.ListAccounts(ctx, accessToken)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccountFound
	}
	return &accounts[0], nil
}

// ListMessages 列举权威账户收件视图中的邮件，保持提供方顺序
func (s *MailService) ListMessages(ctx context.Context, sess *domain.Session) ([]domain.MessageRef, error) {
	account, err := s.ResolveAccount(ctx, sess)
	if err != nil {
		return nil, err
	}

	var messages []domain.MessageRef
	err = s.withAuthRetry(ctx, sess, func(accessToken string) error {
		var listErr error
		messages, listErr = s.provider.ListMessages(ctx, accessToken, account.AccountID, s.fetchLimit)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ListFolders 列举权威账户下的文件夹
func (s *MailService) ListFolders(ctx context.Context, sess *domain.Session) ([]domain.Folder, error) {
	account, err := s.ResolveAccount(ctx, sess)
	if err != nil {
		return nil, err
	}

	var folders []domain.Folder
	err = s.withAuthRetry(ctx, sess, func(accessToken string) error {
		var listErr error
		folders, listErr = s.provider.ListFolders(ctx, accessToken, account.AccountID)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// AggregateAttachments 聚合全账户的附件元数据
//
// 对每封带附件的邮件并发拉取附件元数据，并发度受限；
// 结果按邮件枚举顺序组装，与并发调度顺序无关。
// 无附件的邮件不产生分组，任一邮件拉取失败则整体失败
func (s *MailService) AggregateAttachments(ctx context.Context, sess *domain.Session) ([]domain.AttachmentGroup, error) {
	_, groups, err := s.aggregate(ctx, sess)
	return groups, err
}

func (s *MailService) aggregate(ctx context.Context, sess *domain.Session) (string, []domain.AttachmentGroup, error) {
	account, err := s.ResolveAccount(ctx, sess)
	if err != nil {
		return "", nil, err
	}

	var messages []domain.MessageRef
	err = s.withAuthRetry(ctx, sess, func(accessToken string) error {
		var listErr error
		messages, listErr = s.provider.ListMessages(ctx, accessToken, account.AccountID, s.fetchLimit)
		return listErr
	})
	if err != nil {
		return "", nil, err
	}

	// 按索引存放结果，保证组装顺序与枚举顺序一致
	results := make([][]domain.AttachmentRef, len(messages))
	err = s.withAuthRetry(ctx, sess, func(accessToken string) error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)

		for i, msg := range messages {
			if !msg.HasAttachment {
				continue
			}
			i, msg := i, msg
			g.Go(func() error {
				refs, infoErr := s.provider.AttachmentInfo(gctx, accessToken, account.AccountID, msg.FolderID, msg.MessageID)
				if infoErr != nil {
					return infoErr
				}
				results[i] = refs
				return nil
			})
		}

		return g.Wait()
	})
	if err != nil {
		return "", nil, err
	}

	groups := make([]domain.AttachmentGroup, 0, len(messages))
	for i, msg := range messages {
		if len(results[i]) == 0 {
			continue
		}
		groups = append(groups, domain.AttachmentGroup{
			MessageID:   msg.MessageID,
			FolderID:    msg.FolderID,
			Attachments: results[i],
		})
	}

	return account.AccountID, groups, nil
}

// DownloadAttachments 下载全账户附件到目标目录
//
// 内容并发拉取，落盘按聚合顺序串行执行。文件名取附件原始名称，
// 重名直接覆盖，后写的胜出。任一环节失败则整体失败，不产生部分结果清单
func (s *MailService) DownloadAttachments(ctx context.Context, sess *domain.Session, targetDir string) ([]DownloadedFile, error) {
	accountID, groups, err := s.aggregate(ctx, sess)
	if err != nil {
		return nil, err
	}

	var refs []domain.AttachmentRef
	for _, group := range groups {
		refs = append(refs, group.Attachments...)
	}
	if len(refs) == 0 {
		return []DownloadedFile{}, nil
	}

	// 先并发取回全部内容，再按序落盘
	contents := make([][]byte, len(refs))
	err = s.withAuthRetry(ctx, sess, func(accessToken string) error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)

		for i, ref := range refs {
			i, ref := i, ref
			g.Go(func() error {
				content, fetchErr := s.provider.AttachmentContent(gctx, accessToken, accountID, ref.FolderID, ref.MessageID, ref.AttachmentID)
				if fetchErr != nil {
					return fetchErr
				}
				contents[i] = content
				return nil
			})
		}

		return g.Wait()
	})
	if err != nil {
		return nil, err
	}

	downloaded := make([]DownloadedFile, 0, len(refs))
	for i, ref := range refs {
		path, writeErr := s.files.WriteAttachment(targetDir, ref.AttachmentName, contents[i])
		if writeErr != nil {
			return nil, writeErr
		}

		size := int64(len(contents[i]))
		if s.metrics != nil {
			s.metrics.AttachmentsDownloaded.Inc()
			s.metrics.AttachmentBytesTotal.Add(float64(size))
			s.metrics.AttachmentSize.Observe(float64(size))
		}

		downloaded = append(downloaded, DownloadedFile{
			AttachmentID: ref.AttachmentID,
			MessageID:    ref.MessageID,
			Name:         ref.AttachmentName,
			Path:         path,
			Size:         size,
		})
	}

	s.log.Info("attachments downloaded",
		zap.String("session_id", sess.ID),
		zap.Int("count", len(downloaded)),
		zap.String("dir", targetDir),
	)

	return downloaded, nil
}
