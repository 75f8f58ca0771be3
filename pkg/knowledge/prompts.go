package knowledge

// extractionPromptTemplate is the instruction prompt for knowledge
// extraction. The single %s placeholder receives the conversation text.
// The model is directed to answer with a JSON array; the parser still
// treats the response as untrusted.
const extractionPromptTemplate = `Analyze the following conversation and extract key knowledge points.
For each piece of knowledge, provide:
1. A clear topic/subject
2. The actual content/information
3. Relevant keywords for searchability
4. Importance score (1-10, where 10 is most important)

Only extract factual information, personal insights, or actionable knowledge.
Ignore casual conversation, greetings, or filler.

Conversation:
%s

Format your response as a JSON array of objects with fields: topic, content, keywords, importance_score`
