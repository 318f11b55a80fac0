package knowledge

import (
	"context"
	"fmt"
	"log/slog"
)

// Seed loads the default knowledge base into store when it is empty. Called
// once at startup; an already-populated store is left untouched so curated
// edits survive restarts.
func Seed(ctx context.Context, store Store) error {
	n, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("knowledge seed: count: %w", err)
	}
	if n > 0 {
		slog.Debug("knowledge base already populated, skipping seed", "entries", n)
		return nil
	}

	for i, e := range defaultEntries {
		if _, err := store.Create(ctx, e); err != nil {
			return fmt.Errorf("knowledge seed: entry %d (%q): %w", i, e.Question, err)
		}
	}
	slog.Info("seeded default knowledge base", "entries", len(defaultEntries))
	return nil
}

// defaultEntries is the ValuEnable default knowledge base: the Veena call
// script and policy facts at priorities 3-5, followed by generic insurance
// questions at priority 1.
var defaultEntries = []Entry{
	{
		Category: "Conversation Flow",
		Question: "How should I greet customers?",
		Answer:   "Hello and very Good Morning Sir, May I speak with [policy_holder_name]? I'm Veena from ValuEnable Life Insurance Co. Ltd, this is a service call regarding your life insurance policy. Is this the right time to speak about your policy renewal?",
		Keywords: []string{"greeting", "introduction", "policy holder", "veena", "valuEnable"},
		Priority: 5,
		IsActive: true,
	},
	{
		Category: "Conversation Flow",
		Question: "How to handle policy confirmation?",
		Answer:   "Let me confirm your policy details. Your ValuEnable Life insurance policy number is [policy_number], started on [policy_start_date]. You've paid [total_premium_paid] so far. The premium of [outstanding_amount] due on [premium_due_date] is pending, and your policy is in 'Discontinuance' status with no life insurance cover. Could you tell me why you haven't been able to pay the premium?",
		Keywords: []string{"policy confirmation", "discontinuance", "premium due", "outstanding amount"},
		Priority: 5,
		IsActive: true,
	},
	{
		Category: "Conversation Flow",
		Question: "How to handle customer who is busy?",
		Answer:   "It will take just 2 minutes of your time. Can we discuss it right now or should I reschedule your call at a better time? When would be convenient to call you again? Please can you give a time and date?",
		Keywords: []string{"busy customer", "reschedule", "call back", "convenient time"},
		Priority: 4,
		IsActive: true,
	},
	{
		Category: "Conversation Flow",
		Question: "How to handle missing policy bond?",
		Answer:   "You can download the policy bond through whatsapp. Please send a message from your registered mobile number on 8806727272 and you will be able to download the policy bond.",
		Keywords: []string{"policy bond", "download", "whatsapp", "8806727272"},
		Priority: 4,
		IsActive: true,
	},
	{
		Category: "Conversation Flow",
		Question: "How to close the conversation?",
		Answer:   "For any further assistance with your policy, feel free to call our helpline at 1800 209 7272, message us on whatsapp on 8806 727272, mail us or visit our website. Thank you for your valuable time. Have a great day ahead.",
		Keywords: []string{"closing", "helpline", "1800 209 7272", "whatsapp", "8806 727272"},
		Priority: 4,
		IsActive: true,
	},
	{
		Category: "Policy Details",
		Question: "What are the current policy details?",
		Answer:   "Premium Amount: ₹100,000 yearly, Sum Assured: ₹10,00,000, Policy Term: 10 years, Premium Payment Term: 7 years, Due Date: 25th September 2024, Fund Value: ₹5,53,089, Premium paid till date: ₹4,00,000",
		Keywords: []string{"policy details", "premium amount", "sum assured", "policy term", "fund value"},
		Priority: 5,
		IsActive: true,
	},
	{
		Category: "Returns & Performance",
		Question: "What are the effective returns and charges?",
		Answer:   "Effective Returns: 11.47%, Charges: 3.89%, Loyalty Benefits: ₹22,000 approximately. Fund allocations: Pure Stock Fund 35% (16.91% returns), Bluechip Equity Fund 35% (17.23% returns), Pure Stock Fund 2 30% (16.66% returns)",
		Keywords: []string{"returns", "charges", "performance", "fund allocation", "loyalty benefits"},
		Priority: 5,
		IsActive: true,
	},
	{
		Category: "Payment Options",
		Question: "What payment options are available?",
		Answer:   "You can pay via online transfer, credit card, debit card, net banking, PhonePe, WhatsApp Pay, Google Pay, cheque, or cash. For online payments, visit our website or we can send you a payment link.",
		Keywords: []string{"payment", "online", "credit card", "net banking", "payment link"},
		Priority: 4,
		IsActive: true,
	},
	{
		Category: "Premium Revival",
		Question: "What happens if I don't pay my premium?",
		Answer:   "Your policy is currently in 'Discontinuance' status with no life insurance cover. You're losing the benefit of ₹10,00,000 sum assured. Renewal premiums have maximum allocation and provide tax benefits under Section 80C and 10(10D).",
		Keywords: []string{"discontinuance", "premium due", "life cover", "tax benefits"},
		Priority: 5,
		IsActive: true,
	},
	{
		Category: "Financial Difficulties",
		Question: "What if I can't pay due to financial problems?",
		Answer:   "You can pay via credit card, switch to monthly EMI, or change payment frequency. After 5 years, partial withdrawal is available. Staying invested is key to achieving financial goals.",
		Keywords: []string{"financial problems", "credit card", "EMI", "partial withdrawal"},
		Priority: 4,
		IsActive: true,
	},
	{
		Category: "Market Concerns",
		Question: "Markets are too high, should I wait?",
		Answer:   "Your life insurance worth ₹10,00,000 has been reduced to NIL while waiting. You can invest in our Bond Fund (5.45% returns) or use Auto-transfer Portfolio strategy to systematically move from debt to equity funds when markets improve.",
		Keywords: []string{"market high", "bond fund", "auto-transfer", "debt funds"},
		Priority: 4,
		IsActive: true,
	},
	{
		Category: "Policy Misconceptions",
		Question: "I thought this was a single premium plan?",
		Answer:   "Your policy has PPT (Premium Payment Term) of 7 years as mentioned in policy document. By discontinuing, your money will be invested in low yield Discontinued Life Fund (4.30% returns) vs market linked funds (16.91% returns in Pure Stock Fund).",
		Keywords: []string{"single premium", "PPT", "discontinued fund", "market linked"},
		Priority: 4,
		IsActive: true,
	},
	{
		Category: "Alternative Investments",
		Question: "What about mutual funds or other alternatives?",
		Answer:   "Most mutual funds have 2% expense ratios without life insurance cover. Your policy's effective charges reduce to 1.61% for remaining term. You get loyalty additions of ₹22,000 which aren't available in mutual funds.",
		Keywords: []string{"mutual funds", "expense ratio", "effective charges", "loyalty additions"},
		Priority: 4,
		IsActive: true,
	},
	{
		Category: "Unsatisfactory Returns",
		Question: "What if I'm not satisfied with returns?",
		Answer:   "You've earned 11.47% annualized effective returns post all charges and taxes. Effective charges reduce to 1.61% for remaining term vs 3.89% till date. You can switch to any other funds based on risk appetite.",
		Keywords: []string{"unsatisfactory returns", "fund switching", "effective charges", "risk appetite"},
		Priority: 4,
		IsActive: true,
	},
	{
		Category: "New Policy Purchase",
		Question: "Should I buy a new ULIP policy?",
		Answer:   "ULIPs have higher charges initially. Your current policy has only 1.61% effective charges for remaining term, much cheaper than new ULIP. For traditional plans, consider diversifying by switching part of funds to debt funds.",
		Keywords: []string{"new policy", "ULIP charges", "traditional plans", "diversification"},
		Priority: 4,
		IsActive: true,
	},
	{
		Category: "Contact Information",
		Question: "How can I contact ValuEnable for assistance?",
		Answer:   "Call our helpline at 1800 209 7272, message us on WhatsApp at 8806 727272, email us, or visit our website. For policy bond download, send message from registered mobile to 8806727272.",
		Keywords: []string{"contact", "helpline", "whatsapp", "policy bond", "website"},
		Priority: 3,
		IsActive: true,
	},
	{
		Category: "Growth Scenarios",
		Question: "What are the growth projections?",
		Answer:   "Growth @ 8%: ₹11,84,000 (7.73% effective returns). Growth @ 4%: ₹9,72,576 (4.78% effective returns). Historical Growth @ 17.33%: ₹19,99,690 (15.60% effective returns). Pay 1 premium and stay scenarios also available.",
		Keywords: []string{"growth projections", "maturity amount", "historical returns", "effective returns"},
		Priority: 3,
		IsActive: true,
	},
	{
		Category: "Life Insurance",
		Question: "What is life insurance?",
		Answer:   "Life insurance is a contract between you and an insurance company where you pay premiums in exchange for a death benefit paid to your beneficiaries when you pass away.",
		Keywords: []string{"life insurance", "death benefit", "premiums", "beneficiaries"},
		Priority: 1,
		IsActive: true,
	},
	{
		Category: "Life Insurance",
		Question: "What is life insurance?",
		Answer:   "Life insurance is a contract between you and an insurance company where you pay premiums in exchange for a death benefit paid to your beneficiaries when you pass away. It provides financial protection for your loved ones.",
		Keywords: []string{"life insurance", "death benefit", "premiums", "beneficiaries", "financial protection"},
		Priority: 1,
		IsActive: true,
	},
	{
		Category: "Life Insurance",
		Question: "How are life insurance premiums calculated?",
		Answer:   "Life insurance premiums are calculated based on several key factors: your age, health condition, lifestyle habits (smoking, drinking), coverage amount, policy type, and gender. Generally, younger and healthier individuals pay lower premiums.",
		Keywords: []string{"premiums", "calculation", "age", "health", "lifestyle", "coverage", "smoking"},
		Priority: 1,
		IsActive: true,
	},
	{
		Category: "Life Insurance",
		Question: "What are the benefits of term life insurance?",
		Answer:   "Term life insurance offers several key benefits: 1) Lower premiums compared to whole life insurance, 2) High coverage amounts for affordable rates, 3) Flexibility to choose coverage period, 4) No medical exam for younger applicants, and 5) Tax-free death benefit for beneficiaries. It's ideal for income replacement and debt protection.",
		Keywords: []string{"term life", "benefits", "affordable", "coverage", "income replacement", "debt protection"},
		Priority: 1,
		IsActive: true,
	},
	{
		Category: "Claims",
		Question: "How do I file a life insurance claim?",
		Answer:   "To file a life insurance claim: 1) Contact the insurance company immediately, 2) Obtain and provide the death certificate, 3) Complete all required claim forms, 4) Submit supporting documentation, 5) Wait for processing (usually 30-60 days). Keep copies of all documents.",
		Keywords: []string{"claims", "file claim", "death certificate", "documentation", "processing time"},
		Priority: 1,
		IsActive: true,
	},
	{
		Category: "Claims",
		Question: "What documents are needed for a life insurance claim?",
		Answer:   "Required documents typically include: certified death certificate, completed claim forms, policy documents, proof of identity of the beneficiary, and any additional forms requested by the insurer. Some cases may require medical records or police reports.",
		Keywords: []string{"documents", "death certificate", "claim forms", "policy documents", "beneficiary", "medical records"},
		Priority: 1,
		IsActive: true,
	},
	{
		Category: "Policy Types",
		Question: "What are the different types of life insurance?",
		Answer:   "Main types include: Term Life (temporary coverage at lower cost), Whole Life (permanent with cash value), Universal Life (flexible premiums and benefits), and Variable Life (investment component). Each serves different financial needs and goals.",
		Keywords: []string{"policy types", "term life", "whole life", "universal life", "variable life", "permanent", "temporary"},
		Priority: 1,
		IsActive: true,
	},
	{
		Category: "Policy Types",
		Question: "What is whole life insurance?",
		Answer:   "Whole life insurance is permanent life insurance that provides lifelong coverage with level premiums. It builds cash value that you can borrow against, and the death benefit is guaranteed. Premiums are higher than term life but remain constant throughout your life.",
		Keywords: []string{"whole life", "permanent", "cash value", "level premiums", "guaranteed", "lifelong coverage"},
		Priority: 1,
		IsActive: true,
	},
	{
		Category: "Coverage",
		Question: "How much life insurance coverage do I need?",
		Answer:   "A general rule is 10-12 times your annual income. Consider your debts, family expenses, children's education costs, mortgage, and your spouse's income when determining coverage amount. Online calculators can help determine your specific needs.",
		Keywords: []string{"coverage amount", "annual income", "debts", "family expenses", "education costs", "mortgage", "calculator"},
		Priority: 1,
		IsActive: true,
	},
	{
		Category: "Coverage",
		Question: "Can I change my life insurance coverage?",
		Answer:   "Yes, you can typically increase or decrease coverage, though changes may require medical underwriting. You can also add riders for additional benefits. Contact your insurer to discuss options and any associated costs or requirements.",
		Keywords: []string{"change coverage", "increase", "decrease", "medical underwriting", "riders", "additional benefits"},
		Priority: 1,
		IsActive: true,
	},
	{
		Category: "Health Insurance",
		Question: "What is health insurance?",
		Answer:   "Health insurance is coverage that pays for medical and surgical expenses. It can either reimburse you for expenses or pay the care provider directly. It helps protect you from high medical costs and provides access to preventive care.",
		Keywords: []string{"health insurance", "medical expenses", "surgical expenses", "preventive care", "coverage"},
		Priority: 1,
		IsActive: true,
	},
	{
		Category: "Health Insurance",
		Question: "What does health insurance typically cover?",
		Answer:   "Health insurance typically covers: doctor visits, hospital stays, prescription medications, preventive services, emergency care, and specialty treatments. Coverage varies by plan, so check your policy details for specific benefits and limitations.",
		Keywords: []string{"health coverage", "doctor visits", "hospital", "prescription", "preventive services", "emergency care"},
		Priority: 1,
		IsActive: true,
	},
	{
		Category: "Premiums",
		Question: "How can I lower my insurance premiums?",
		Answer:   "Ways to lower premiums include: maintaining good health, choosing higher deductibles, bundling policies, taking advantage of discounts, paying annually instead of monthly, and regularly reviewing your coverage needs. Quitting smoking can significantly reduce life insurance premiums.",
		Keywords: []string{"lower premiums", "good health", "higher deductibles", "bundling", "discounts", "quit smoking"},
		Priority: 1,
		IsActive: true,
	},
	{
		Category: "Premiums",
		Question: "Why did my insurance premium increase?",
		Answer:   "Premium increases can occur due to: age-related rate adjustments, changes in health status, increased coverage, inflation, changes in risk factors, or overall market conditions. Review your policy and contact your insurer for specific reasons.",
		Keywords: []string{"premium increase", "age", "health status", "coverage changes", "inflation", "risk factors"},
		Priority: 1,
		IsActive: true,
	},
}
