package embedding

import "context"

// Embedding 定义了所有 embedding 模型需要实现的接口。
type Embedding interface {
	// Embed 为单个文本生成嵌入向量。
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch 为一批文本生成嵌入向量。
	//
	// 返回值:
	//   [][]float32: 与 texts 一一对应、顺序相同的嵌入向量。
	//   error: 如果生成嵌入向量失败, 或返回数量与输入不一致, 则返回错误。
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelType 是一个枚举类型，用于表示不同的模型厂商。
type ModelType string

const (
	Gemini ModelType = "gemini" // Google Gemini 模型类型。
	OpenAI ModelType = "openai" // OpenAI 及其兼容服务。
	Ollama ModelType = "ollama" // 本地 Ollama 服务。
)
