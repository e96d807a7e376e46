package config

type WorkerKeyStruct struct {
	PersistDraftAnswersQueue string
	PersistResultsQueue      string
}

var WorkerKey = &WorkerKeyStruct{
	PersistDraftAnswersQueue: "persist_draft_answers_queue",
	PersistResultsQueue:      "persist_results_queue",
}
