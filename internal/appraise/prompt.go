// Package appraise implements the estimation pipeline: prompt composition
// with injected melt values, the vision model call with structured-JSON
// parsing, and the correction/re-estimation session.
package appraise

import "github.com/snappy-gold/appraisal-api/internal/model"

// Melt value placeholders substituted at composition time. The pricing text
// references several of them more than once (formula steps and worked
// examples), so substitution must replace every occurrence.
const (
	phGoldSpot       = "GOLD_SPOT_PRICE"
	phSilverSpot     = "SILVER_SPOT_PRICE"
	phGold10K        = "GOLD_10K_PER_GRAM"
	phGold14K        = "GOLD_14K_PER_GRAM"
	phGold18K        = "GOLD_18K_PER_GRAM"
	phGold24K        = "GOLD_24K_PER_GRAM"
	phSilverSterling = "SILVER_STERLING_PER_GRAM"
	phSilverFine     = "SILVER_FINE_PER_GRAM"
)

// Category is one of the three closed appraisal categories. Each carries its
// own detail-field schema, response example, and rule text; the composer
// stitches them into a single prompt that instructs the model to
// self-classify first, because classification decides which schema applies.
type Category struct {
	Name         string
	Heading      string
	ItemTypes    []model.ItemType
	DetailLabels []string
	// ResponseExample is the exact JSON shape the model must produce for
	// this category.
	ResponseExample string
	// Rules holds identification and pricing guidance with no dynamic
	// content; it is safe to cache across requests.
	Rules string
	// PricedRules holds pricing guidance containing melt placeholders;
	// empty for categories priced off the secondary market.
	PricedRules string
}

// Categories returns the closed category set in prompt order.
func Categories() []Category {
	return []Category{watchCategory, jewelryCategory, luxuryCategory}
}

var watchCategory = Category{
	Name:      "watch",
	Heading:   "FORMAT A — WATCHES (use when item_type is \"watch\")",
	ItemTypes: []model.ItemType{model.ItemWatch},
	DetailLabels: []string{
		"Brand", "Model / Reference", "Condition", "Est. Production Year", "Completeness",
	},
	ResponseExample: `{
  "item_type": "watch",
  "title": "Full name with reference, e.g. 'Rolex Day-Date 40 228235 Green Dial'",
  "description": "2-3 sentence confident description. State the case material (e.g. 18K Yellow Gold, Stainless Steel, etc).",
  "confidence": "high | medium | low",
  "details": [
    {"label": "Brand", "value": "e.g. Rolex"},
    {"label": "Model / Reference", "value": "e.g. Day-Date 40 228235"},
    {"label": "Condition", "value": "e.g. Excellent - light wear consistent with regular use"},
    {"label": "Est. Production Year", "value": "e.g. 2023-2024"},
    {"label": "Completeness", "value": "Full set: box, papers, links"}
  ],
  "offer_low": 50000,
  "offer_high": 62000,
  "offer_notes": "Based on current secondary market value for this reference as a full set (box, papers, links). Final offer subject to in-person authentication."
}`,
	Rules: `You MUST use exactly the watch detail labels in the order shown. Do NOT use Material, Estimated Weight, or any jewelry fields for watches.

WATCH VISUAL IDENTIFICATION RULES — USE THESE TO IDENTIFY EXACT REFERENCES:

ROLEX GMT-MASTER II (distinguish by bezel colors):
- Black + Blue ceramic bezel ("Batman/Batgirl"): ref 126710BLNR
- Red + Blue ceramic bezel ("Pepsi"): ref 126710BLRO
- Black + Brown ceramic bezel ("Root Beer"): ref 126711CHNR (two-tone Everose)
- All black bezel (older generation): ref 116710LN
- Green + Black ceramic bezel ("Sprite"): ref 126720VTNR (left-handed crown at 9 o'clock)

ROLEX SUBMARINER (distinguish by bezel color, date window, metal):
- Black bezel, steel, date window: ref 126610LN
- Black bezel, steel, NO date: ref 124060
- Green bezel + green dial, steel ("Starbucks/Kermit"): ref 126610LV
- Green bezel + green dial, older ("Hulk"): ref 116610LV (discontinued, commands premium)
- Blue bezel + blue dial, two-tone steel/gold: ref 126613LB
- Black bezel, all yellow gold: ref 126618LN
- Blue bezel, all yellow gold: ref 126618LB

ROLEX DAYTONA (distinguish by dial color and metal):
- Steel, white dial with black subdials ("Panda"): ref 116500LN
- Steel, black dial: ref 116500LN
- Yellow gold, green dial: ref 116508
- Everose gold, chocolate/brown dial: ref 116505
- Platinum, ice blue dial: ref 116506

ROLEX DAY-DATE 40 (distinguish by case metal and dial color):
- Yellow gold, green or champagne dial: ref 228238
- White gold, blue or silver dial: ref 228239
- Everose gold, sundust/brown dial: ref 228235
- Platinum, ice blue dial: ref 228206

ROLEX DATEJUST (distinguish by size, bezel, dial, bracelet):
- 41mm, fluted bezel + jubilee bracelet: most common modern config (ref 126334)
- 41mm, smooth bezel + oyster bracelet: sportier look (ref 126300)
- 36mm: older generation or ladies' size
- "Wimbledon" dial: slate grey dial with GREEN Roman numeral hour markers — very popular, premium variant
- Blue dial: commands premium over silver/white
- Diamond dial/bezel: significant premium over standard
- IMPORTANT: If the watch is on an aftermarket rubber strap (like Rubber B, Oysterflex-style), note this — it means the ORIGINAL BRACELET may be missing, which significantly reduces value. Always mention it in the description and Completeness field.

OMEGA (distinguish by subdial layout and case):
- Speedmaster "Moonwatch": hesalite crystal, tachymeter bezel, 3 subdials
- Speedmaster sapphire sandwich: display caseback visible
- Seamaster 300M: wave dial texture, helium escape valve
- Seamaster Planet Ocean: thicker case, larger than 300M
- Aqua Terra: dressier, teak/horizontal lines on dial

AUDEMARS PIGUET ROYAL OAK (distinguish by size and complications):
- 41mm steel time-only: ref 15500ST or 15510ST
- 37mm steel: ref 15450ST
- Chronograph steel: ref 26331ST (two subdials)
- "Jumbo" Extra-Thin 39mm: ref 15202ST (ultra-thin case, premium model)
- Rose gold variants: look for warm pink tone on case and bracelet

PATEK PHILIPPE (distinguish by shape and dial):
- Nautilus: horizontal embossed lines on dial, porthole-shaped case, ref 5711
- Nautilus Chronograph: ref 5980 (subdials present)
- Aquanaut: rounded octagonal case, textured rubber strap, ref 5167/5168
- Calatrava: round dress watch, simple dial

CARTIER (distinguish by case shape):
- Santos: square case with exposed screws on bezel
- Tank: rectangular case — Must (smaller/thinner) vs Française (more bracelet-integrated)
- Ballon Bleu: round with distinctive crown guard bubble
- Panthère: square with chain-link bracelet

WATCH PRICING RULES — THIS IS CRITICAL:
- Price watches based on SECONDARY MARKET / PRE-OWNED DEALER VALUES, not metal melt value
- Use your knowledge of current pre-owned market values for the exact reference you identified above
- Price at the HIGHER END of the market range to be competitive — we want sellers to feel good about the estimate
- AFTERMARKET MODIFICATIONS: If a watch is on a non-original strap/band, ALWAYS note this. The original bracelet is a significant portion of the watch's value — if missing, reduce estimate 15-25%.
- All prices assume FULL SET (box, papers, links) which commands the highest premium
- ALWAYS default Completeness to "Full set: box, papers, links"
- If a user corrects completeness to indicate missing items, adjust pricing DOWN accordingly:
  - Watch only (no box, no papers): reduce 15-25% from full set price
  - Watch + box only (no papers): reduce 10-15%
  - Watch + papers only (no box): reduce 5-10%
  - Missing extra links: reduce 2-5%
- ALWAYS lean toward the higher end of the range

WATCH YEAR ESTIMATION — BE CAREFUL:
- Base year estimates on the specific reference number and dial variant
- Many newer dial colors/variants were introduced recently (2020-2025). When in doubt about a specific colorway or variant, estimate MORE RECENT rather than older
- Do NOT default to old date ranges. If a dial variant looks current-generation, estimate 2022-2025`,
}

var jewelryCategory = Category{
	Name:      "jewelry",
	Heading:   "FORMAT B — JEWELRY / PRECIOUS METALS (use for everything that is NOT a watch or a luxury good)",
	ItemTypes: []model.ItemType{model.ItemRing, model.ItemNecklace, model.ItemBracelet, model.ItemEarrings, model.ItemCoin, model.ItemBar, model.ItemOther},
	DetailLabels: []string{
		"Material", "Estimated Weight", "Condition", "Brand/Maker",
	},
	ResponseExample: `{
  "item_type": "ring | necklace | bracelet | earrings | coin | bar | other",
  "title": "Brief descriptive title, e.g. '14K Yellow Gold Cuban Link Chain'",
  "description": "2-3 sentence description of what you see including materials, quality indicators, brand if visible. Be confident — do not hedge with 'appears to be' or 'possibly'.",
  "confidence": "high | medium | low",
  "details": [
    {"label": "Material", "value": "e.g. 14K Yellow Gold"},
    {"label": "Estimated Weight", "value": "e.g. 25-35 grams"},
    {"label": "Condition", "value": "e.g. Good - minor surface wear"},
    {"label": "Brand/Maker", "value": "e.g. Unknown / Tiffany & Co. / etc"}
  ],
  "offer_low": 500,
  "offer_high": 1200,
  "offer_notes": "Brief note on what drives the range. Reference current spot prices and item specifics. Final offer depends on in-person verification."
}`,
	Rules: `WEIGHT ESTIMATION — MANDATORY DECISION TREE (you MUST follow this exactly):

Gold is DENSE (19.3 g/cm³). Items almost always weigh MORE than they look. You CANNOT eyeball gold weight accurately from a photo. Instead, CLASSIFY the item and USE THE CORRESPONDING WEIGHT RANGE below. Do NOT estimate below these floors under any circumstances.

STEP 1: Classify the item into ONE of these categories.
STEP 2: Use the weight range for that category. Always use the MIDDLE TO HIGH end.

CHAINS / NECKLACES:
- Thin women's chain (delicate, 16-18"): 8-15g
- Standard women's necklace (pendant chain, layering): 12-20g
- Men's chain, standard (20-24", any link style): 35-50g
- Men's chain, heavy/thick (Cuban, Mariner, rope): 50-80g+
- ADD 5-15g if pendant is attached

RINGS:
- Thin band / wedding band: 3-6g
- Standard ring with setting: 5-10g
- Cocktail / statement ring: 10-20g
- Men's signet or class ring: 10-25g

BRACELETS:
- Thin women's bracelet / bangle: 8-20g
- Standard bracelet (tennis, link): 15-35g
- Men's / heavy bracelet: 30-60g+

EARRINGS:
- Studs: 1-3g per pair
- Drops / dangles: 3-10g per pair
- Large hoops: 5-15g per pair

PENDANTS (standalone, no chain):
- Small charm: 2-5g
- Medium pendant: 5-15g
- Large / heavy pendant: 15-30g

BARS / COINS:
- Estimate from visible markings (1 oz, 10 oz, etc.)
- If no markings visible, estimate by apparent size

CRITICAL RULES:
- A chain that a man is wearing or holding that reaches mid-chest is AT LEAST 35g in 14K gold. NEVER estimate below 30g for any men's chain.
- If you estimated under 15g for anything other than earrings, a thin women's chain, or a thin ring — you are almost certainly wrong. Re-check your classification.
- ALWAYS show weight as a range (e.g. "35-50 grams") not a single number.
- When in doubt, round UP. The seller knows the actual weight — a lowball guess loses credibility instantly.`,
	PricedRules: `JEWELRY PRICING — USE THESE EXACT PRE-COMPUTED VALUES (do NOT calculate your own):
- GOLD spot: GOLD_SPOT_PRICE per troy ounce today.
- SILVER spot: SILVER_SPOT_PRICE per troy ounce today.

PRE-COMPUTED per-gram melt values (already calculated for you — just multiply by weight):
- 10K gold: GOLD_10K_PER_GRAM per gram
- 14K gold: GOLD_14K_PER_GRAM per gram
- 18K gold: GOLD_18K_PER_GRAM per gram
- 24K gold: GOLD_24K_PER_GRAM per gram
- Sterling silver (.925): SILVER_STERLING_PER_GRAM per gram
- .999 fine silver: SILVER_FINE_PER_GRAM per gram

PRICING FORMULA — FOLLOW THIS EXACTLY, STEP BY STEP:
Step 1: Identify material (e.g. 14K gold)
Step 2: Look up per-gram value from list above (e.g. GOLD_14K_PER_GRAM)
Step 3: Estimate weight range (e.g. 35-50g)
Step 4: Compute LOW melt = low weight × per-gram (e.g. 35 × GOLD_14K_PER_GRAM)
Step 5: Compute HIGH melt = high weight × per-gram (e.g. 50 × GOLD_14K_PER_GRAM)
Step 6: Your offer_low MUST be >= the Step 4 result. Your offer_high MUST be >= the Step 5 result.
Step 7: Add any brand/design/collectible premium ON TOP of melt value.

SANITY CHECK — MANDATORY BEFORE RESPONDING:
- If your offer for a 14K gold item is less than GOLD_14K_PER_GRAM × your low weight estimate, YOUR MATH IS WRONG. Redo it.
- For silver bullion bars/coins: offer should be 85-95% of spot × weight in troy ounces
- NEVER offer below melt value. That is the absolute floor.`,
}

var luxuryCategory = Category{
	Name:      "luxury",
	Heading:   "FORMAT C — LUXURY GOODS (use for designer handbags, purses, wallets, belts, shoes, sunglasses, accessories)",
	ItemTypes: []model.ItemType{model.ItemHandbag, model.ItemWallet, model.ItemBelt, model.ItemShoes, model.ItemSunglasses, model.ItemAccessory},
	DetailLabels: []string{
		"Brand", "Model", "Material", "Condition", "Completeness",
	},
	ResponseExample: `{
  "item_type": "handbag | wallet | belt | shoes | sunglasses | accessory",
  "title": "Full name, e.g. 'Louis Vuitton Neverfull MM Monogram Canvas'",
  "description": "2-3 sentence confident description. Note the brand, model if identifiable, material, color, hardware finish, and overall condition.",
  "confidence": "high | medium | low",
  "details": [
    {"label": "Brand", "value": "e.g. Louis Vuitton"},
    {"label": "Model", "value": "e.g. Neverfull MM"},
    {"label": "Material", "value": "e.g. Monogram Canvas with Vachetta leather trim"},
    {"label": "Condition", "value": "e.g. Very Good - light patina on leather, clean interior"},
    {"label": "Completeness", "value": "Full set: dust bag, box, receipt"}
  ],
  "offer_low": 800,
  "offer_high": 1200,
  "offer_notes": "Based on current resale market for this model and condition. Final offer subject to in-person authentication."
}`,
	Rules: `LUXURY GOODS VISUAL IDENTIFICATION RULES:

LOUIS VUITTON (distinguish by pattern):
- Brown "LV" monogram on tan canvas = Monogram (most common)
- Brown checkerboard = Damier Ebene
- Blue/white checkerboard = Damier Azur
- Black embossed leather = Epi Leather (higher value)
- Multicolor monogram = Limited editions (higher value)
- Neverfull: check size by proportions — MM is medium, GM is large
- Speedy: 25 is small, 30 is medium, 35 is large — visible as stamped number on tab

CHANEL (distinguish by style and hardware):
- Classic Flap: quilted with CC turn-lock clasp — identify size by proportions (Mini ~7", Small ~9", Medium ~10", Jumbo ~12")
- Gold hardware vs silver hardware: gold slightly higher resale
- Caviar leather (textured/pebbly) vs lambskin (smooth): caviar holds value better
- Boy Bag: rectangular shape, chunky industrial-style clasp
- 19 Bag: oversized quilting, mixed chain and leather strap
- Classic WOC (wallet on chain): small crossbody

HERMÈS (distinguish by shape and hardware):
- Birkin: structured, TWO top handles, NO shoulder strap, front flap with turn-lock
  - Size by width: 25cm (small), 30cm (medium), 35cm (large)
  - Exotic leather (crocodile/ostrich): dramatically higher value than standard
- Kelly: SINGLE top handle, detachable shoulder strap, front flap with turn-lock
  - Sellier (rigid/structured): higher value than Retourne (soft/slouchy)
- Constance: H-shaped clasp on front, crossbody
- Evelyne: perforated H logo on front, casual crossbody
- Garden Party: casual open tote, no closure
- Color matters: neutral colors (gold, etoupe, noir, etain) command premium over bright colors

LUXURY GOODS PRICING:
- Use your knowledge of current pre-owned resale market values for the exact brand, model, size, material, and condition you identified
- Price at the HIGHER end of the market range to be competitive
- ALWAYS default Completeness to "Full set: dust bag, box, receipt" — assume full set for pricing
- If the user corrects to missing accessories, reduce 10-20%`,
}
