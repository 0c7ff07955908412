package llm

const judgePairPrompt = `You are an analyst of parliamentary proceedings. Decide whether a speaker's
current statement contradicts one of their earlier statements.

Speaker: %s
Current statement (%s): %s
Earlier statement (%s, %s): %s

Score the likelihood of a contradiction from 0 to 100, where 0 means fully
consistent and 100 means a direct, undeniable contradiction. A topic change
or a vague overlap is not a contradiction. Classify the kind:
- "reversal": the speaker now asserts the opposite position
- "broken_promise": a past commitment the current statement abandons
- "inconsistency": the statements cannot both hold but neither is a clean reversal
- "none": no contradiction

Respond ONLY with JSON, no markdown:
{"score":0,"kind":"none","rationale":"brief reason","conflict_points":["optional short phrases"]}`
