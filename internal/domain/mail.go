package domain

// MailAccount 提供方侧的邮箱账户
//
// 每次请求都从 accounts 端点重新解析，不做缓存；
// 约定列表中第一个条目为权威账户
type MailAccount struct {
	AccountID    string `json:"accountId"`
	AccountName  string `json:"accountName"`
	PrimaryEmail string `json:"primaryEmailAddress"`
}

// Folder 邮件文件夹
type Folder struct {
	FolderID   string `json:"folderId"`
	FolderName string `json:"folderName"`
	Path       string `json:"path"`
}

// MessageRef 邮件的瞬态描述符，仅用于寻址后续提供方调用，不持久化
type MessageRef struct {
	MessageID     string `json:"messageId"`
	FolderID      string `json:"folderId"`
	Subject       string `json:"subject"`
	From          string `json:"fromAddress"`
	ReceivedTime  string `json:"receivedTime"`
	HasAttachment bool   `json:"hasAttachment"`
}

// AttachmentRef 附件的瞬态描述符
//
// 下载端点按 (accountId, folderId, messageId, attachmentId) 四元组寻址，
// 因此每个 AttachmentRef 必须携带其所属邮件的 folderId/messageId
type AttachmentRef struct {
	AttachmentID   string `json:"attachmentId"`
	AttachmentName string `json:"attachmentName"`
	Size           int64  `json:"attachmentSize"`
	MessageID      string `json:"messageId"`
	FolderID       string `json:"folderId"`
}

// AttachmentGroup 按邮件分组的附件元数据包
//
// 只有至少含一个附件的邮件才会产生分组，顺序与邮件枚举顺序一致
type AttachmentGroup struct {
	MessageID   string          `json:"messageId"`
	FolderID    string          `json:"folderId"`
	Attachments []AttachmentRef `json:"attachment"`
}
