package vision

// rooftopPrompt asks the model for a strict-JSON rooftop assessment. The
// field names mirror model.RoofAnalysis exactly so the response unmarshals
// without translation.
const rooftopPrompt = `Analyze this satellite/aerial image of a rooftop for solar panel installation feasibility.

Respond ONLY with a JSON object in exactly this structure, with no text before or after it:

{
  "roof_analysis": {
    "roof_area_sqm": <number>,
    "usable_area_sqm": <number>,
    "roof_shape": "<rectangular|l_shaped|complex|other>",
    "roof_material": "<asphalt_shingles|metal|tile|flat_membrane|other>",
    "roof_condition": "<excellent|good|fair|poor>",
    "roof_age_estimate": "<0-10_years|10-20_years|20+_years>"
  },
  "orientation_analysis": {
    "primary_roof_direction": "<north|northeast|east|southeast|south|southwest|west|northwest>",
    "roof_tilt_estimate": <degrees>,
    "multiple_orientations": <true|false>,
    "optimal_sections": ["<section>"]
  },
  "obstructions": {
    "chimneys": <integer>,
    "vents": <integer>,
    "skylights": <integer>,
    "hvac_units": <integer>,
    "satellite_dishes": <integer>,
    "other_obstructions": ["<description>"]
  },
  "shading_analysis": {
    "nearby_trees": "<none|minimal|moderate|significant>",
    "neighboring_buildings": "<none|minimal|moderate|significant>",
    "self_shading": "<none|minimal|moderate|significant>",
    "overall_shading_impact": "<minimal|low|moderate|high>"
  },
  "access_and_installation": {
    "roof_accessibility": "<easy|moderate|difficult>",
    "structural_concerns": "<none apparent|description>",
    "electrical_panel_visible": <true|false>,
    "installation_complexity": "<low|moderate|high>"
  },
  "solar_suitability": {
    "overall_rating": "<excellent|good|fair|poor>",
    "confidence_score": <number between 0 and 1>,
    "key_advantages": ["<advantage>"],
    "key_challenges": ["<challenge>"],
    "recommendations": ["<recommendation>"]
  }
}

Estimate areas from visible scale cues. Count only obstructions you can see. If a value cannot be determined from the image, give your best estimate and lower the confidence_score.`
