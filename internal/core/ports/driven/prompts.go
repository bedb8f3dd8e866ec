package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptDocumentAnalysis requests the structured document analysis.
	// The template expects a single %s placeholder for the document text.
	PromptDocumentAnalysis = "document_analysis"

	// PromptSectionExtraction requests a JSON outline of the document.
	// The template expects a single %s placeholder for the document text.
	PromptSectionExtraction = "section_extraction"

	// PromptRAGAnswer answers a question from retrieved context.
	// The template expects %s (context) then %s (question).
	PromptRAGAnswer = "rag_answer"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}

// DefaultPrompts returns the built-in template for every well-known prompt.
// Prompt stores seed their files from this map and fall back to it.
func DefaultPrompts() map[string]string {
	return map[string]string{
		PromptDocumentAnalysis:  defaultDocumentAnalysisPrompt,
		PromptSectionExtraction: defaultSectionExtractionPrompt,
		PromptRAGAnswer:         defaultRAGAnswerPrompt,
	}
}

// DefaultPrompt returns the built-in template for name, or "" if unknown.
func DefaultPrompt(name string) string {
	return DefaultPrompts()[name]
}

const defaultDocumentAnalysisPrompt = `你是一名资深的文档分析师。请通读下面的文档并给出结构化分析。

文档内容：
%s

只输出一个 JSON 对象，字段如下：
{
  "one_sentence_summary": "一句话概括文档核心（不超过30字）",
  "summary": "200到300字的摘要，说明文档讲了什么、目的和价值",
  "key_points": ["要点1", "要点2", "要点3"],
  "key_concepts": [{"term": "术语", "definition": "解释"}],
  "document_type": "文档类型，例如技术文档、制度规范、培训教材、学术论文",
  "difficulty_level": "入门、中级或高级",
  "target_audience": "适合的读者",
  "learning_suggestions": ["可操作的学习建议"],
  "estimated_reading_time": "预计阅读分钟数",
  "common_questions": ["读者可能提出的问题"]
}

要求：
1. 只依据文档内容作答，不要编造
2. 关键概念选取文档中最重要的术语
3. 输出必须是合法 JSON，可以放在 ` + "```json" + ` 代码块中`

const defaultSectionExtractionPrompt = `请阅读下面的文档，提取它的章节结构。

文档内容：
%s

只输出一个 JSON 数组，每个元素形如：
{"title": "章节标题", "level": 1, "summary": "20到50字的内容概述"}

要求：
1. level 为 1 表示一级标题，2 表示二级标题
2. 只保留主要章节，不要过细
3. 按章节在文档中出现的顺序输出
4. 输出必须是合法 JSON`

const defaultRAGAnswerPrompt = `你是一名培训助教，请根据下面的文档片段回答用户的问题。

文档片段：
%s

用户问题：%s

要求：
1. 只依据提供的片段作答，不要编造
2. 如果片段中没有相关信息，请直接说明
3. 回答准确、清晰、有条理
4. 使用中文回答

回答：`
