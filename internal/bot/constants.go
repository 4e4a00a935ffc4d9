package bot

const (
	stageCheckJobTag  = "stage_check_job"
	dailyDigestJobTag = "daily_digest_job"

	callbackCancel        = "cancel"
	callbackPickDelete    = "delete_pick"
	callbackConfirmDelete = "delete_confirm"
	callbackPickEdit      = "edit_pick"
	callbackEditField     = "edit_field"
)
