package disease

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
)

// Info describes a known fish disease for farmer-facing output.
type Info struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Causes      []string `json:"causes"`
	Symptoms    []string `json:"symptoms"`
	Treatment   string   `json:"treatment"`
	Prevention  []string `json:"prevention"`
}

// healthyLabel predictions are suppressed below a high confidence bar to
// avoid masking a likely disease with a marginal "healthy" score.
const healthyLabel = "Healthy Fish"

// defaultLabelMap matches the class ordering the disease model was trained
// with; used when no label_map.json is provided.
var defaultLabelMap = map[int]string{
	0: "Bacterial Red disease",
	1: "Bacterial diseases - Aeromoniasis",
	2: "Bacterial gill disease",
	3: "Fungal diseases Saprolegniasis",
	4: healthyLabel,
	5: "Parasitic diseases",
	6: "Viral diseases White tail disease",
}

// LoadLabelMap reads a class-index → disease-name map from a JSON file with
// string keys. Falls back to the built-in map when the file is missing or
// unreadable.
func LoadLabelMap(path string) map[int]string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("disease: label map not found at %s, using default mapping", path)
		return defaultLabelMap
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("disease: invalid label map %s: %v, using default mapping", path, err)
		return defaultLabelMap
	}

	labels := make(map[int]string, len(raw))
	for k, v := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil {
			log.Printf("disease: invalid label index %q in %s, using default mapping", k, path)
			return defaultLabelMap
		}
		labels[idx] = v
	}
	return labels
}

var catalog = map[string]Info{
	"Bacterial Red disease": {
		Name:        "Bacterial Red Disease",
		Description: "Bacterial hemorrhagic septicemia causing red lesions and hemorrhaging.",
		Causes:      []string{"Aeromonas bacteria", "Poor water quality", "Stress", "Physical injuries"},
		Symptoms:    []string{"Red lesions on body", "Hemorrhages on skin and fins", "Ulcers", "Lethargy", "Loss of appetite"},
		Treatment:   "Quarantine infected fish. Antibiotics (oxytetracycline or florfenicol) as prescribed. Improve water quality and aeration. Salt bath 1-3%.",
		Prevention:  []string{"Maintain water quality", "Regular water changes", "Avoid overcrowding", "Quarantine new fish"},
	},
	"Bacterial diseases - Aeromoniasis": {
		Name:        "Aeromoniasis (Motile Aeromonas Septicemia)",
		Description: "Systemic bacterial infection by Aeromonas species leading to septicemia and organ damage.",
		Causes:      []string{"Aeromonas hydrophila", "Poor water quality", "High organic load", "Temperature fluctuations"},
		Symptoms:    []string{"Hemorrhages on body", "Fin rot", "Ulcers", "Swollen abdomen", "Bulging eyes"},
		Treatment:   "Antibiotic treatment (oxytetracycline, sulfonamides). Improve water quality, increase dissolved oxygen, reduce stocking density.",
		Prevention:  []string{"Maintain optimal water parameters", "Regular monitoring", "Quarantine protocols", "Disinfect equipment"},
	},
	"Bacterial gill disease": {
		Name:        "Bacterial Gill Disease",
		Description: "Bacterial infection of gill tissue impairing respiration.",
		Causes:      []string{"Flavobacterium branchiophilum", "High ammonia", "Overcrowding", "Low dissolved oxygen"},
		Symptoms:    []string{"Rapid gill movement", "Gasping at surface", "Pale or swollen gills", "Excess gill mucus"},
		Treatment:   "Improve water quality immediately and increase aeration. Chloramine-T or hydrogen peroxide bath; carefully dosed copper sulfate.",
		Prevention:  []string{"Dissolved oxygen above 5 mg/L", "Ammonia at 0 ppm", "Avoid overcrowding", "Proper filtration"},
	},
	"Fungal diseases Saprolegniasis": {
		Name:        "Saprolegniasis (Fungal Infection)",
		Description: "Saprolegnia infection appearing as cotton-like growth on body, fins or eggs.",
		Causes:      []string{"Saprolegnia fungus", "Physical injury", "Low temperature", "Weakened immune system"},
		Symptoms:    []string{"White or gray cotton-like growth", "Fluffy patches on body and fins", "Often follows injury"},
		Treatment:   "Salt bath 0.5-1% for 10-15 minutes. Antifungal medication (methylene blue, potassium permanganate). Improve water quality.",
		Prevention:  []string{"Avoid physical injuries", "Handle fish carefully", "Quarantine injured fish", "Maintain optimal temperature"},
	},
	healthyLabel: {
		Name:        "Healthy Fish - No Disease Detected",
		Description: "Fish appears healthy with no visible signs of disease or distress.",
		Symptoms:    []string{"Active swimming", "Normal appetite", "Bright coloration", "Clear eyes", "Intact fins"},
		Treatment:   "No treatment needed. Continue regular monitoring and maintenance practices.",
		Prevention:  []string{"Maintain optimal water quality", "Regular feeding schedule", "Monitor water parameters weekly"},
	},
	"Parasitic diseases": {
		Name:        "Parasitic Infections",
		Description: "External or internal parasites including protozoa, worms and crustaceans.",
		Causes:      []string{"Ichthyophthirius (Ich)", "Trichodina", "Anchor worms", "Introduction of infected fish"},
		Symptoms:    []string{"White spots on body", "Scratching or flashing behavior", "Excess mucus", "Weight loss", "Clamped fins"},
		Treatment:   "Identify the specific parasite. For Ich: raise temperature to 30°C with 1-2% salt. External parasites: formalin or potassium permanganate bath.",
		Prevention:  []string{"Quarantine new fish 2-3 weeks", "Disinfect equipment", "Regular inspection"},
	},
	"Viral diseases White tail disease": {
		Name:        "Viral White Tail Disease",
		Description: "Viral infection causing white discoloration of the tail; highly contagious and often fatal.",
		Causes:      []string{"Species-specific viral pathogen", "Infected fish introduction", "Poor biosecurity"},
		Symptoms:    []string{"White discoloration of tail", "Tail necrosis", "Lethargy", "High mortality"},
		Treatment:   "No specific antiviral treatment; supportive care only. Quarantine immediately and disinfect all equipment.",
		Prevention:  []string{"Certified disease-free suppliers", "Strict quarantine 3-4 weeks", "Do not share equipment between tanks"},
	},
}

// InfoFor returns catalog details for a disease name, or a generic fallback
// when the label is recognized by the model but not in the catalog.
func InfoFor(name string) Info {
	if info, ok := catalog[name]; ok {
		return info
	}
	return Info{
		Name:        name,
		Description: "Detected " + name,
		Treatment:   "Consult an aquaculture veterinarian for specific treatment.",
		Prevention:  []string{"Maintain good water quality", "Regular monitoring"},
	}
}
