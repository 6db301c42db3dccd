package models

// MealIdea is a dinner suggestion, either curated or generated
type MealIdea struct {
	Name       string   `json:"name"`
	Emoji      string   `json:"emoji"`
	Desc       string   `json:"desc"`
	KidTip     string   `json:"kidTip"`
	PrepTime   string   `json:"prepTime"`
	Difficulty string   `json:"difficulty"`
	KidScore   int      `json:"kidScore,omitempty"`
	Tags       []string `json:"tags"`
}

// HasTag reports whether the idea carries tag
func (m MealIdea) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CuratedMeals is the static list every kid-friendly suggestion falls back to
var CuratedMeals = []MealIdea{
	{Name: "Build-Your-Own Taco Bar", Emoji: "🌮", KidScore: 5, PrepTime: "45 min", Difficulty: "Easy",
		Desc:   "Ground beef, chicken, black beans. Kids love assembling their own. Keep toppings mild & separate.",
		KidTip: "Let toddlers fill their own soft mini tortillas. Plain beans + shredded cheese always wins.",
		Tags:   []string{"crowd-pleaser", "customisable", "hands-on"}},
	{Name: "Pasta Bar — 3 Sauces", Emoji: "🍝", KidScore: 5, PrepTime: "35 min", Difficulty: "Easy",
		Desc:   "Marinara, butter+parm, pesto. Tiny pasta shapes for little ones. Nearly zero stress.",
		KidTip: "Serve ditali or small shells, easier for 1–3 year olds. Plain butter pasta = guaranteed clean plate.",
		Tags:   []string{"kid-staple", "vegetarian-option", "easy"}},
	{Name: "Sheet-Pan Chicken & Veg", Emoji: "🍗", KidScore: 4, PrepTime: "1 hr", Difficulty: "Easy",
		Desc:   "Roast chicken thighs with carrots, potatoes, zucchini. Mild seasoning, one pan, minimal cleanup.",
		KidTip: "Cut veg extra small and cook until very tender. Kids can pick their favourites.",
		Tags:   []string{"one-pan", "allergen-friendly", "wholesome"}},
	{Name: "Homemade Pizza Night", Emoji: "🍕", KidScore: 5, PrepTime: "90 min", Difficulty: "Medium",
		Desc:   "Store-bought dough, kids decorate their own mini pizzas. Adults get gourmet toppings on the side.",
		KidTip: "Give each kid a dough ball. Pressing it flat is half the fun. Plain cheese mini pizzas are perfect.",
		Tags:   []string{"activity", "crowd-pleaser", "fun"}},
	{Name: "Slow-Cooker BBQ Pulled Pork", Emoji: "🥩", KidScore: 4, PrepTime: "15 min active", Difficulty: "Easy",
		Desc:   "Set it in the morning. Soft slider buns perfect for toddler-sized portions.",
		KidTip: "Shred pork very fine. Soft brioche slider buns are easy for little hands and mouths.",
		Tags:   []string{"make-ahead", "crowd-pleaser"}},
	{Name: "Mac & Cheese (Two Ways)", Emoji: "🧀", KidScore: 5, PrepTime: "40 min", Difficulty: "Easy",
		Desc:   "Classic stovetop for kids. Stir in fancy cheese, bacon, truffle oil for adults. Everyone wins.",
		KidTip: "Make kid version first, scoop out, then elevate the pot for adults. No complaints guaranteed.",
		Tags:   []string{"kid-staple", "comfort", "two-versions"}},
	{Name: "Grilled Salmon + Rice", Emoji: "🐟", KidScore: 3, PrepTime: "40 min", Difficulty: "Medium",
		Desc:   "Flaky baked salmon with plain rice for kids. Light, healthy and impressive for adults.",
		KidTip: "Flake salmon thoroughly and check for bones. Plain rice with a little butter is very toddler-friendly.",
		Tags:   []string{"healthy", "omega-3"}},
	{Name: "Meatball Sub Bar", Emoji: "🥖", KidScore: 5, PrepTime: "50 min", Difficulty: "Medium",
		Desc:   "Bake meatballs ahead. Soft rolls, marinara, melted mozzarella. Kids do mini versions.",
		KidTip: "Small meatballs cut in half avoid choking risk. Soft rolls help too.",
		Tags:   []string{"make-ahead", "crowd-pleaser", "fun"}},
	{Name: "Chicken Quesadillas + Guac", Emoji: "🫔", KidScore: 5, PrepTime: "30 min", Difficulty: "Easy",
		Desc:   "Quick to make in batches. Cut into small triangles for little hands.",
		KidTip: "Cut into thin triangles. Quesadillas are ideal finger food for toddlers.",
		Tags:   []string{"quick", "kid-staple", "customisable"}},
	{Name: "Mild Chili + Cornbread", Emoji: "🫕", KidScore: 4, PrepTime: "1 hr", Difficulty: "Easy",
		Desc:   "Mild chili base, adults spice their own bowl. Cornbread is loved by all ages.",
		KidTip: "Keep the base totally mild. Adults can add hot sauce. Cornbread squares are great for little hands.",
		Tags:   []string{"comfort", "make-ahead", "warming"}},
	{Name: "Lo Mein Noodle Night", Emoji: "🥢", KidScore: 4, PrepTime: "35 min", Difficulty: "Easy",
		Desc:   "Noodles with chicken, broccoli, carrots. Plain noodles with butter for picky eaters.",
		KidTip: "Set aside plain noodles with sesame oil before adding sauces.",
		Tags:   []string{"quick", "veggie-packed", "fun"}},
	{Name: "Backyard Burgers", Emoji: "🍔", KidScore: 5, PrepTime: "45 min", Difficulty: "Easy",
		Desc:   "Classic grill night. Smash burgers for adults, simple patties for kids.",
		KidTip: "Make slider-sized patties for little ones. Soft buns are key at age 1–3.",
		Tags:   []string{"grill", "crowd-pleaser"}},
	{Name: "Chicken Soup + Crusty Bread", Emoji: "🍲", KidScore: 4, PrepTime: "90 min", Difficulty: "Medium",
		Desc:   "Hearty and comforting. Kids love the noodles, adults love the depth.",
		KidTip: "Chop veg fine for toddlers. Soft noodles in broth = toddler heaven.",
		Tags:   []string{"comfort", "make-ahead", "warming"}},
	{Name: "Baked Fish Tacos with Slaw", Emoji: "🐠", KidScore: 3, PrepTime: "45 min", Difficulty: "Medium",
		Desc:   "Crispy baked fish, mild slaw, crema. Kids get plain fish in a soft tortilla.",
		KidTip: "Bake not fry. Remove skin & bones. Plain fish in a soft wrap works great.",
		Tags:   []string{"healthy", "customisable"}},
	{Name: "Sunday Roast Chicken", Emoji: "🐔", KidScore: 4, PrepTime: "2 hr", Difficulty: "Involved",
		Desc:   "Whole roasted chicken, roasted potatoes and veg. Classic and impressive.",
		KidTip: "Drumsticks are fun for older kids. Shred thigh meat for 1–2 year olds.",
		Tags:   []string{"special-occasion", "impressive", "traditional"}},
}

// FilterMeals returns the ideas tagged with tag; "" or "all" returns everything
func FilterMeals(meals []MealIdea, tag string) []MealIdea {
	if tag == "" || tag == "all" {
		return meals
	}
	var out []MealIdea
	for _, m := range meals {
		if m.HasTag(tag) {
			out = append(out, m)
		}
	}
	return out
}
