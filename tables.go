package main

// EPI radio questions ("EPI adicional necessário e proteções").
var (
	epiHarness      = AnswerKey{"Q001", "Cinto de Segurança"}
	epiVentilation  = AnswerKey{"Q002", "Ventilação Forçada"}
	epiLifeJacket   = AnswerKey{"Q003", "Colete Salva-vidas"}
	epiExLighting   = AnswerKey{"Q004", "Iluminação p/ uso em área classificada (tipo Ex)"}
	epiDoubleHear   = AnswerKey{"Q005", "Dupla Proteção Auricular"}
	epiFaceShield   = AnswerKey{"Q006", "Protetor Facial"}
	epiRadiosLayout = []struct {
		key  AnswerKey
		base Answer
	}{
		{epiHarness, No},
		{epiVentilation, No},
		{epiLifeJacket, No},
		{epiExLighting, No},
		{epiDoubleHear, Yes},
		{epiFaceShield, Yes},
	}
)

// Full questionnaire ("Questionário PT"). Q001 and Q002 each exist in two
// wordings across form revisions; both are planned.
var (
	qptChange          = AnswerKey{"Q001", "O trabalho a ser realizado é caracterizado como uma mudança?"}
	qptOperatorOnSite  = AnswerKey{"Q001", "Permanência do Operador no Local de Trabalho?"}
	qptPeriodicCheck   = AnswerKey{"Q002", "Acompanhamento Periódico? (Em caso de Acompanhamento Periódico, efetuar verificações de ____em___horas)"}
	qptIsolationPlan   = AnswerKey{"Q002", "As manobras, bloqueios e isolamentos foram executados conforme o plano de isolamento?"}
	qptDrained         = AnswerKey{"Q003", "O equipamento foi drenado e/ou lavado e/ou limpo e/ou ventilado ?"}
	qptTagged          = AnswerKey{"Q004", "O equipamento está corretamente sinalizado com etiquetas de advertência ?"}
	qptElectricCheck   = AnswerKey{"Q005", "Foram realizadas inspeções prévias nos equipamentos elétricos (luminárias, quadros, painéis, conexões, cabos, etc) e os cabos elétricos estão supensos?"}
	qptFireSafeguards  = AnswerKey{"Q006", "Caso os sistemas e equipamentos de combate a incêndio do local onde será executado o trabalho não estejam em condições normais de operação, foram definidas salvaguardas?"}
	qptAirHoses        = AnswerKey{"Q007", "As mangueiras de ar comprimido possuem engates rápidos compatíveis e os mesmos estão travados"}
	qptAreaIsolated    = AnswerKey{"Q008", "O local foi isolado, sinalizado e o pessoal desnecessário  afastado ?"}
	qptSparkContainer  = AnswerKey{"Q009", "Foi providenciada a contenção de fagulhas com mantas e materiais adequados?"}
	qptCoupledMotor    = AnswerKey{"Q010", "Caso o equipamento esteja acoplado a equipamento elétrico (ex: motor elétrico),  foram tomadas precauções quanto à energização acidental do equipamento ?"}
	qptOpeningsCapped  = AnswerKey{"Q011", "Foi providenciado Tamponamentos de drenos, ralos, vents e outras aberturas próximas ao local do trabalho?"}
	qptProductionLoss  = AnswerKey{"Q012", "A execução deste trabalho pode causar Risco de Perda de Produção?"}
	qptSensorInhibit   = AnswerKey{"Q013", "Caso necessário inibir sensores do sistema de detecção de fogo e gás, foram definidas salvaguardas para suprir a inibição?"}
	qptObserverTrained = AnswerKey{"Q014", "O observador foi instruído quanto a utilização dos equipamentos de combate a incêndio?"}
	qptLayout          = []struct {
		key  AnswerKey
		base Answer
	}{
		{qptChange, No},
		{qptOperatorOnSite, No},
		{qptPeriodicCheck, Yes},
		{qptIsolationPlan, NotApplicable},
		{qptDrained, NotApplicable},
		{qptTagged, NotApplicable},
		{qptElectricCheck, NotApplicable},
		{qptFireSafeguards, NotApplicable},
		{qptAirHoses, NotApplicable},
		{qptAreaIsolated, Yes},
		{qptSparkContainer, NotApplicable},
		{qptCoupledMotor, NotApplicable},
		{qptOpeningsCapped, NotApplicable},
		{qptProductionLoss, No},
		{qptSensorInhibit, NotApplicable},
		{qptObserverTrained, NotApplicable},
	}
)

// Equipment item labels as the EPI selection dialog lists them.
const (
	itemImpactGloves      = "LUVA DE PROTEÇÃO CONTRA IMPACTOS MODELO II (3, 4, 3, 3, 'C', 'P')"
	itemAramidGloves      = "LUVA ARAMIDA"
	itemSplitLeatherGlove = "LUVA DE RASPA"
	itemAntiVibGloves     = "LUVA ANTI-VIBRAÇÃO"

	itemRespiratoryNA = "NÃO APLICÁVEL"
	itemHalfMaskPFF2  = "PEÇA SEMI-FACIAL FILTRANTE 2"

	itemDoubleHearing = "DUPLA PROTEÇÃO AUDITIVA"
	itemMandatoryEPI  = "EPI´s OBRIGATÓRIOS (CAPACETE, BOTA, PROT. AURIC. E UNIFORME)"

	itemWideVision     = "ÓCULOS AMPLA VISÃO"
	itemFaceShield     = "PROTETOR FACIAL"
	itemImpactGlasses  = "ÓCULOS SEGURANÇA CONTRA IMPACTO"
	itemWelderMask     = "MÁSCARA SOLDADOR"
	itemShadeLens      = "LENTE DE ACORDO COM AMPERAGEM DA MÁQUINA"
	itemTorchGoggles   = "ÓCULOS MAÇARIQUEIRO"
	itemLifeJacketRF   = "COLETE SALVA VIDAS RF (apenas para trabalhos a quente)"
	itemLifeJacket     = "COLETE SALVA-VIDAS"
	itemHighBoots      = "BOTA CANO ALTO"
	itemChinStrapHelm  = "CAPACETE S/ABAS C/ CARNEIRA E PRESILHA DE QUEIXO EM Y"
	itemParachuteBelt  = "CINTO DE SEG. TP PARA-QUEDISTA"
	itemRescueBelt     = "CINTO DE SEGURANÇA PARA RESGATE"
	itemDoubleLanyard  = "DUPLO TALABARTE EM Y OU LINHA DE VIDA CONJUGADA TRAVA QUEDA"
	itemClosedCoverall = "MACACÃO COM GOLA TIPO PADRE E BOLSOS FECHADOS"
)

var (
	flameGarments = []string{
		"BALACLAVA",
		"AVENTAL DE RASPA",
		"CAPUZ",
		"MANGA DE RASPA",
		"PERNEIRA DE RASPA",
		"VESTIM. COMPLETA DE RASPA",
	}
	heightGarments = []string{
		itemHighBoots,
		itemChinStrapHelm,
		itemParachuteBelt,
		itemRescueBelt,
		itemDoubleLanyard,
		itemClosedCoverall,
	}
	overWaterGarments = append(append([]string(nil), heightGarments...), itemLifeJacketRF, itemLifeJacket)
)

// placeholderItems stand in for "nothing specific" in their category and
// are replaced, not extended, when a hazard selects a real baseline.
var placeholderItems = map[EquipmentCategory]string{
	CategoryRespiratory: itemRespiratoryNA,
	CategoryEyewear:     itemImpactGlasses,
}

// supplementaryCount is the row count of the deployed supplementary form.
const supplementaryCount = 20

// supplementaryTriggers maps each hazard to the row it answers on the
// deployed form revision. The numbers are a hint only; live rows are
// answered from their text, see ResolveSupplementary.
var supplementaryTriggers = []struct {
	number int
	flags  []Flag
}{
	{6, []Flag{FlagConfinedSpace}},
	{7, []Flag{FlagHeight, FlagRopeAccess}},
	{8, []Flag{FlagOverWater}},
	{10, []Flag{FlagOpenFlame}},
	{13, []Flag{FlagPressurized}},
	{16, []Flag{FlagWaterJetting}},
	{17, []Flag{FlagMovingParts}},
	{19, []Flag{FlagCO2Protected}},
}

// environmentalAnswer is the fixed rule for the environmental analysis.
const environmentalAnswer = No

func pick(cond bool, ifTrue, ifFalse Answer) Answer {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// BuildPrimaryEPI plans the EPI radio questions.
func BuildPrimaryEPI(ctx HazardContext) AnswerTable {
	t := make(map[AnswerKey]Answer, len(epiRadiosLayout))
	for _, row := range epiRadiosLayout {
		t[row.key] = row.base
	}
	t[epiHarness] = pick(ctx.Any(FlagHeight, FlagRopeAccess, FlagOverWater), Yes, No)
	t[epiLifeJacket] = pick(ctx.Has(FlagOverWater), Yes, No)
	t[epiFaceShield] = pick(ctx.EyeHazard(), Yes, No)
	return newAnswerTable(t)
}

// BuildEquipment plans the item set of every equipment category. Each
// category starts from a baseline picked by the context, and hazards only
// ever add to it.
func BuildEquipment(ctx HazardContext) EquipmentTable {
	gloves := NewItemSet(itemImpactGloves)
	respiratory := NewItemSet(itemRespiratoryNA)
	garments := NewItemSet(itemDoubleHearing, itemMandatoryEPI)
	eyewear := NewItemSet(itemWideVision, itemFaceShield)

	if !ctx.EyeHazard() {
		eyewear = NewItemSet(itemImpactGlasses)
	}
	if ctx.Has(FlagOpenFlame) || ctx.MechanicalTreatment() {
		respiratory = NewItemSet(itemHalfMaskPFF2)
	}

	if ctx.Has(FlagOpenFlame) {
		gloves = gloves.With(itemAramidGloves, itemSplitLeatherGlove)
		garments = garments.With(flameGarments...)
		eyewear = eyewear.With(itemWelderMask)
	}
	if ctx.Any(FlagWelding, FlagOxyCutting) {
		eyewear = eyewear.With(itemShadeLens)
	}
	if ctx.Has(FlagOxyCutting) {
		eyewear = eyewear.With(itemTorchGoggles)
	}
	if ctx.MechanicalTreatment() {
		gloves = gloves.With(itemAntiVibGloves)
	}
	if ctx.Any(FlagHeight, FlagRopeAccess) {
		garments = garments.With(heightGarments...)
	}
	if ctx.Has(FlagOverWater) {
		garments = garments.With(overWaterGarments...)
	}

	return EquipmentTable{sets: map[EquipmentCategory]ItemSet{
		CategoryGloves:      gloves,
		CategoryRespiratory: respiratory,
		CategoryGarments:    garments,
		CategoryEyewear:     eyewear,
	}}
}

// BuildQuestionnaire plans the full questionnaire. Overridden rows flip
// between Yes and NotApplicable only.
func BuildQuestionnaire(ctx HazardContext) AnswerTable {
	flame := ctx.Has(FlagOpenFlame)

	t := make(map[AnswerKey]Answer, len(qptLayout))
	for _, row := range qptLayout {
		t[row.key] = row.base
	}
	t[qptElectricCheck] = pick(flame || ctx.Has(FlagElectrical), Yes, NotApplicable)
	t[qptAirHoses] = pick(ctx.CompressedAir(), Yes, NotApplicable)
	t[qptSparkContainer] = pick(flame, Yes, NotApplicable)
	t[qptOpeningsCapped] = pick(flame, Yes, NotApplicable)
	t[qptSensorInhibit] = pick(flame && ctx.Has(FlagCO2Protected), Yes, NotApplicable)
	t[qptObserverTrained] = pick(flame, Yes, NotApplicable)
	return newAnswerTable(t)
}

// BuildSupplementary plans the numbered supplementary questionnaire.
func BuildSupplementary(ctx HazardContext) NumberedTable {
	answers := make([]Answer, supplementaryCount+1)
	for n := 1; n <= supplementaryCount; n++ {
		answers[n] = No
	}
	for _, trig := range supplementaryTriggers {
		answers[trig.number] = pick(ctx.Any(trig.flags...), Yes, No)
	}

	entries := make([]NumberedEntry, 0, supplementaryCount)
	for n := 1; n <= supplementaryCount; n++ {
		entries = append(entries, NumberedEntry{Number: n, Answer: answers[n]})
	}
	return NumberedTable{entries: entries}
}
