// Package stages implements the built-in pipeline stages. Stages exchange
// values through stage.State and persist every artifact into the run
// directory via artifact.Store:
//
//	select-idea            picks a seed idea (fatal on failure)
//	generate-statement     writes generated_problem_statement.txt
//	parse-statement        writes problem_structured.json
//	persist-sample         writes sample.in / sample.out
//	generate-solution      writes solution.cpp
//	compile-solution       builds solution
//	verify-sample          runs solution on sample.in and compares with sample.out
//	generate-test-generator writes test_case_generator.cpp
//	build-test-generator   builds and runs test_case_generator inside the run dir
//	generate-report        writes report.md (always runs)
package stages
