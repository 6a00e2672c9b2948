package delivery

// Button labels double as the text the client sends back when pressed.
const (
	ButtonRequestAccess = "Request access"
	ButtonNextLesson    = "Next lesson"
	ButtonAllow         = "Allow"
)

// AllowCallbackKey is the unique of the inline approval button.
const AllowCallbackKey = "allow"

const (
	msgPleaseRequest = "Please request access"
	msgRequestSent   = "The request has been sent. Please wait for approval"
	msgAccessRequest = "%s requested an access. /allow_%d"
	msgAllowed       = "@%s allowed"
	msgWelcome       = "You are allowed to use bot"
	msgNoMoreLessons = "No more lessons available"
	msgUploaded      = "Uploaded"
	msgUploadTarget  = "Uploads go to lesson %d"
	msgLessonUsage   = "Usage: /lesson <number>"
	msgFailure       = "Something went wrong"
	lessonCaption    = "Lesson %d"
)
