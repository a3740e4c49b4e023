package extract

import "fmt"

// The oracle is a plain text-in/text-out LLM. Every prompt constrains the
// model to a small closed output format; the sentinel "None" means "no value
// found". Post-parse validation in extract.go enforces the format regardless
// of what the model actually returns.

const noneSentinel = "None"

func statusPrompt(question, utterance string) string {
	return fmt.Sprintf(`Given this question and response, determine the insurance status.
Question: %q
Response: %q

Return only 'Active' if the patient is eligible/active/covered,
'Inactive' if not eligible/inactive/not covered,
or 'None' if unclear.

Examples:
Q: "What is the patient's current eligibility status?" A: "The patient is currently active and eligible for benefits." -> "Active"
Q: "What is the patient's current eligibility status?" A: "The patient's coverage is active and verified." -> "Active"
Q: "What is the patient's current eligibility status?" A: "Yes, the patient is eligible and the coverage is in force." -> "Active"
Q: "What is the patient's current eligibility status?" A: "The patient's coverage lapsed last month." -> "Inactive"`, question, utterance)
}

func datePrompt(question, utterance string, currentYear int) string {
	return fmt.Sprintf(`Given this question and response, extract the date and convert it to MM/DD/YYYY format.
If the response refers to 'calendar year' or 'year end', use the current year (%[3]d) to determine the date.
Return only the date or 'None' if no date is found. No other text.

Question: %[1]q
Response: %[2]q

Examples:
Q: "What is their effective date of coverage?" A: "The coverage effective date is January 1st, %[3]d." -> "01/01/%[3]d"
Q: "What is their effective date of coverage?" A: "Their coverage began on March 15th, %[3]d." -> "03/15/%[3]d"
Q: "What is their effective date of coverage?" A: "The effective date shows as September 1st, %[4]d." -> "09/01/%[4]d"
Q: "What is their effective date of coverage?" A: "Coverage has been effective since the start of the year." -> "01/01/%[3]d"
Q: "What is their benefit period?" A: "The benefit period is calendar year, January through December." -> "12/31/%[3]d"`,
		question, utterance, currentYear, currentYear-1)
}

func amountPrompt(question, utterance string) string {
	return fmt.Sprintf(`Given this question and response, extract the dollar amount.
Question: %q
Response: %q

Return only the number (no $ or commas) or 'None' if no amount found.

Examples:
Q: "What is the deductible amount?" A: "fifty dollars" -> "50"
Q: "What is their annual maximum benefit?" A: "1k" -> "1000"
Q: "How much of the deductible has been met?" A: "They haven't met any of the deductible yet." -> "0"`, question, utterance)
}

func percentagePrompt(question, utterance string) string {
	return fmt.Sprintf(`Given this question and response, extract the percentage and return only the number (no %% symbol) or 'None' if no percentage is found.
Interpret phrases like 'half coverage' as 50%% and 'full coverage' as 100%%.

Question: %q
Response: %q

Examples:
Q: "What is the coverage percentage for preventive services?" A: "Preventive services are covered at 100%%." -> "100"
Q: "What about basic services?" A: "Basic services are covered at 80%%." -> "80"
Q: "What is the coverage for major services?" A: "Major services are covered at 50%%." -> "50"
Q: "What is the coverage percentage for preventive services?" A: "Preventive services have full coverage." -> "100"
Q: "What about basic services?" A: "Basic services have half coverage." -> "50"`, question, utterance)
}

func planTypePrompt(question, utterance string) string {
	return fmt.Sprintf(`Given this question and response, extract the insurance plan type.
Common types include: PPO, HMO, DHMO, Indemnity, etc.
Return only the plan type or 'None' if unclear. No other text.

Question: %q
Response: %q

Examples:
Q: "What type of plan do they have?" A: "This is a PPO plan." -> "PPO"
Q: "What type of plan do they have?" A: "They have a DHMO plan." -> "DHMO"
Q: "What type of plan do they have?" A: "It's an indemnity plan." -> "Indemnity"
Q: "What type of plan do they have?" A: "The patient has a PPO Plus plan." -> "PPO Plus"`, question, utterance)
}

func periodPrompt(question, utterance string) string {
	return fmt.Sprintf(`Given this question and response, extract the time period.
Common formats include: 'Calendar Year', 'Contract Year', '6 months', '12 months', etc.
Return only the period or 'None' if not found. No other text.

Question: %q
Response: %q

Examples:
Q: "What is their benefit period?" A: "The benefit period is calendar year, January through December." -> "Calendar Year"
Q: "What is their benefit period?" A: "Benefits run on a fiscal year, July through June." -> "Fiscal Year"
Q: "Are there any waiting periods?" A: "Yes, there's a 6-month waiting period for major services." -> "6 months"`, question, utterance)
}

func frequencyPrompt(question, utterance string) string {
	return fmt.Sprintf(`Given this question and response, extract the frequency limitation for each type of service mentioned.
Common formats include: 'Once every 6 months', '2 per year', 'Annual', etc.
Return a JSON object with the type of service as the key and the frequency as the value, or 'None' if nothing can be extracted. Return only the JSON object, no other text.

Question: %q
Response: %q

Examples:
Q: "What are the frequency limitations?" A: "Cleanings are covered twice per calendar year." -> {"Cleanings": "twice per calendar year"}
Q: "What are the frequency limitations?" A: "Exams and cleanings twice per year, x-rays once every 3 years." -> {"Exams": "twice per year", "Cleanings": "twice per year", "X-rays": "once every 3 years"}
Q: "What are the frequency limitations?" A: "Comprehensive exams once every 3 years, routine exams twice per year." -> {"Comprehensive exams": "once every 3 years", "Routine exams": "twice per year"}`, question, utterance)
}

func booleanPrompt(question, utterance string) string {
	return fmt.Sprintf(`Given this question and response, analyze the text to determine if it indicates a positive (yes) or negative (no) response.

Common positive indicators: yes, sure, affirmative, absolutely, of course, definitely, indeed, active,
eligible, covered, required, approved, confirmed, consent, positive, agree, proceed, what do you want,
what would you like, what would you like to verify, what can I help you with
Common negative indicators: no, not, never, inactive, ineligible, not covered, not required, denied,
rejected, negative, disagree

Note: responses that ask for the next action, such as 'Sure, what would you like to verify?'
should be treated as positive (yes) responses.

Question: %q
Response: %q

Return only one of the following: 'True' for positive, 'False' for negative, or 'None' if unclear. No other text.`, question, utterance)
}

func relevancePrompt(question, utterance string) string {
	return fmt.Sprintf(`Does this response contain information relevant to: %s
Look for:
1. Dollar amounts for payment questions
2. Percentages for coverage questions
3. Dates for effective date/period questions
4. Status terms (active, eligible) for eligibility
5. Any numbers or terms that answer the question
6. Even in incomplete sentences, is the required info present?

Return ONLY 'True' if extractable info exists, 'False' if not.
Text: %q`, question, utterance)
}

func helpOfferPrompt(utterance string) string {
	return fmt.Sprintf(`Is this a phrase offering help or asking how to assist? Callers usually ask these after
providing the patient name, date of birth and member ID. The sentence does not have to be
semantically correct as long as it can be interpreted as an offer of help.
Examples:
- "How may I help you?"
- "What can help you with?"
- "How can I assist?"

Return only 'True' or 'False'.
Text: %q`, utterance)
}
