package zoho

import (
	"context"
	"encoding/base64"
	"fmt"

	"zohovault/backend/internal/domain"
)

// ListAccounts 列举授权用户可见的邮件账户
//
// 返回顺序保持提供方顺序，首个账户即主账户
func (c *Client) ListAccounts(ctx context.Context, accessToken string) ([]domain.MailAccount, error) {
	var payload struct {
		Data []domain.MailAccount `json:"data"`
	}

	url := fmt.Sprintf("%s/api/accounts", c.mailBase)
	if err := c.doJSON(ctx, "accounts", url, accessToken, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// ListMessages 列举账户收件视图中的邮件
//
// limit <= 0 时不传 limit 参数，由提供方决定分页大小
func (c *Client) ListMessages(ctx context.Context, accessToken, accountID string, limit int) ([]domain.MessageRef, error) {
	var payload struct {
		Data []domain.MessageRef `json:"data"`
	}

	url := fmt.Sprintf("%s/api/accounts/%s/messages/view", c.mailBase, accountID)
	if limit > 0 {
		url = fmt.Sprintf("%s?limit=%d", url, limit)
	}
	if err := c.doJSON(ctx, "messages", url, accessToken, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// ListFolders 列举账户下的文件夹
func (c *Client) ListFolders(ctx context.Context, accessToken, accountID string) ([]domain.Folder, error) {
	var payload struct {
		Data []domain.Folder `json:"data"`
	}

	url := fmt.Sprintf("%s/api/accounts/%s/folders", c.mailBase, accountID)
	if err := c.doJSON(ctx, "folders", url, accessToken, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// AttachmentInfo 获取单封邮件的附件元数据列表
//
// 返回的每条元数据都会补上所属 messageID/folderID，便于后续取内容
func (c *Client) AttachmentInfo(ctx context.Context, accessToken, accountID, folderID, messageID string) ([]domain.AttachmentRef, error) {
	var payload struct {
		Data struct {
			Attachments []domain.AttachmentRef `json:"attachments"`
		} `json:"data"`
	}

	url := fmt.Sprintf("%s/api/accounts/%s/folders/%s/messages/%s/attachmentinfo",
		c.mailBase, accountID, folderID, messageID)
	if err := c.doJSON(ctx, "attachment_info", url, accessToken, &payload); err != nil {
		return nil, err
	}

	refs := payload.Data.Attachments
	for i := range refs {
		refs[i].MessageID = messageID
		refs[i].FolderID = folderID
	}
	return refs, nil
}

// AttachmentContent 下载单个附件内容
//
// 提供方以 base64 下发附件体，这里解码为原始字节
func (c *Client) AttachmentContent(ctx context.Context, accessToken, accountID, folderID, messageID, attachmentID string) ([]byte, error) {
	var payload struct {
		Data string `json:"data"`
	}

	url := fmt.Sprintf("%s/api/accounts/%s/folders/%s/messages/%s/attachments/%s",
		c.mailBase, accountID, folderID, messageID, attachmentID)
	if err := c.doJSON(ctx, "attachment_content", url, accessToken, &payload); err != nil {
		return nil, err
	}

	content, err := base64.StdEncoding.DecodeString(payload.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode attachment content: %w", err)
	}
	return content, nil
}
