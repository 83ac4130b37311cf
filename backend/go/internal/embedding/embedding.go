package embedding

import (
	"context"
	"fmt"

	"DocChat/backend/go/internal/config"
)

// NewEmbedder 根据配置中的 provider 创建 Embedding 模型实例。
//
// 参数:
//
//	ctx: 仅用于初始化客户端。
//	cfg: embedding 配置, provider 取值为 "gemini"、"openai" 或 "ollama"。
//
// 返回值:
//
//	Embedding: 新创建的 Embedding 模型实例。
//	string: 实际使用的模型名称, 用于缓存键。
//	error: 如果提供商不支持或模型初始化失败，则返回错误。
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (Embedding, string, error) {
	switch ModelType(cfg.Provider) {
	case Gemini:
		m, err := NewGoogleModel(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		return m, cfg.Gemini.Model, err
	case OpenAI:
		m, err := NewOpenAIModel(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
		return m, cfg.OpenAI.Model, err
	case Ollama:
		m, err := NewOllamaModel(cfg.Ollama.Model, cfg.Ollama.BaseURL)
		return m, cfg.Ollama.Model, err
	default:
		return nil, "", fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// checkCount 校验批量结果数量与输入一致。
func checkCount(got, want int) error {
	if got != want {
		return fmt.Errorf("embedding provider returned %d vectors for %d inputs", got, want)
	}
	return nil
}
