package agent

// ClassifyPrompt asks the model for a one-word routing label.
const ClassifyPrompt = `You are an agent that needs to define if a question is a legislation one or a general one.

Question : {input}

Analyse the question. Only answer with "legislation" if the question is about legislation. If not just answer "general".

Your answer (legislation/general) :`

// LegislationPrompt frames the user's question for the legislation answerer.
// The formatted text is used both as the retrieval query and as the question
// sent to the model.
const LegislationPrompt = `You are an expert in legislation. Answer in portuguese the following question with step-by-step details:

Question: {question}`

// StuffSystemPrompt restricts the model to the retrieved segments.
const StuffSystemPrompt = `Use the following pieces of context to answer the user's question. If you don't know the answer, just say that you don't know, don't try to make up an answer.
----------------
{context}`

// GenericPrompt asks for a short direct answer.
const GenericPrompt = `Give a general and concise answer to the question: {input}`
