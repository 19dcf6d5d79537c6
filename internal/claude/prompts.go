package claude

import "fmt"

func productPrompt(competitor, content string) string {
	return fmt.Sprintf(`Extract product information from this %[1]s webpage content.

Return ONLY a JSON array of products. Each product should have:
- product_name: string
- brand: string (or "%[1]s" if not specified)
- category: string (furniture, home_decor, bedding, lighting, rugs, kitchen, outdoor, storage, office, kids, other)
- price: number (numeric value only, no currency symbols)
- original_price: number (if a previous price is shown)
- product_url: string (if found in content)
- image_url: string (if found)

Only extract products that are clearly listed with names and prices. Skip navigation, headers and footers.

Content:
%[2]s

Return only a valid JSON array:`, competitor, content)
}

func promotionPrompt(competitor, content string) string {
	return fmt.Sprintf(`Extract promotion information from this %[1]s webpage content.

Return ONLY a JSON array of promotions. Each promotion should have:
- promo_title: string
- promo_type: string (percentage_off, dollar_off, buy_one_get_one, free_shipping, flash_sale, clearance, bundle_deal, new_customer, loyalty_program, seasonal_sale, other)
- discount_value: number (percentage or dollar amount)
- promo_code: string (if any)
- promo_url: string (if found)
- start_date, end_date: string in YYYY-MM-DD (if stated)
- description: string (brief description)

Only extract clear promotional offers, sales and discounts. Skip regular products.

Content:
%[2]s

Return only a valid JSON array:`, competitor, content)
}
